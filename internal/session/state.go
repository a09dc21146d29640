package session

import (
	"slices"
	"time"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/problemgen"
	"github.com/abhisek/mathquest/internal/progress"
	"github.com/abhisek/mathquest/internal/reward"
)

// Phase is where a session is in its question loop.
type Phase string

const (
	PhaseLoading        Phase = "loading"         // Fetching the next question
	PhaseAwaitingAnswer Phase = "awaiting_answer" // Question shown, waiting for input
	PhaseFeedback       Phase = "feedback"        // Answer scored, or question unscorable
	PhaseComplete       Phase = "complete"        // Terminal
)

// Mode selects how questions are chosen and when the session ends.
type Mode string

const (
	ModePlay              Mode = "play"
	ModeTest              Mode = "test"
	ModeChallengeCreator  Mode = "challenge_creator"
	ModeChallengeOpponent Mode = "challenge_opponent"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePlay, ModeTest, ModeChallengeCreator, ModeChallengeOpponent:
		return m, nil
	}
	return "", &UnknownModeError{Mode: s}
}

// IsChallenge reports whether m is one of the two challenge modes.
func (m Mode) IsChallenge() bool {
	return m == ModeChallengeCreator || m == ModeChallengeOpponent
}

// Role returns the challenge role for a challenge mode.
func (m Mode) Role() challenge.Role {
	if m == ModeChallengeOpponent {
		return challenge.RoleOpponent
	}
	return challenge.RoleCreator
}

// AnswerEvent records one scored submission. Never mutated after creation.
type AnswerEvent struct {
	QuestionID   string               `json:"questionId"`
	QuestionText string               `json:"questionText"`
	Operation    curriculum.Operation `json:"operation"`
	Index        int                  `json:"index"`

	// RawInput is exactly what the learner typed.
	RawInput string `json:"rawInput"`

	// Normalized is the parsed form RawInput was compared as.
	Normalized answer.Value `json:"normalized"`

	Expected answer.Value    `json:"expected"`
	Correct  bool            `json:"correct"`
	TimeMs   int64           `json:"timeMs"`
	Tier     difficulty.Tier `json:"tier"`
	XP       int             `json:"xp"`

	AnsweredAt time.Time `json:"answeredAt"`
}

// State is the full value of a session. Controller transitions take a State
// and return the next one; the caller owns storage between calls.
type State struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Mode   Mode   `json:"mode"`
	Phase  Phase  `json:"phase"`

	Grade      curriculum.Grade       `json:"grade"`
	Modules    []string               `json:"modules,omitempty"`
	Operations []curriculum.Operation `json:"operations"`

	// Question is the current question, nil while loading.
	Question *problemgen.Question `json:"question,omitempty"`

	// QuestionTier is the tier in force when Question was asked. XP for the
	// answer uses it even if the tier moves afterwards.
	QuestionTier difficulty.Tier `json:"questionTier"`

	// Unscorable is set when no answer could be derived for Question.
	Unscorable bool `json:"unscorable,omitempty"`

	// QuestionIndex counts questions issued so far, including unscorable ones.
	// In challenge modes it indexes the shared question set.
	QuestionIndex int `json:"questionIndex"`

	CorrectCount  int `json:"correctCount"`
	TotalCount    int `json:"totalCount"`
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
	XPEarned      int `json:"xpEarned"`

	// Tier is the current difficulty tier, reclassified after every answer.
	Tier difficulty.Tier `json:"tier"`

	// Missed holds incorrect answers in the order they happened.
	Missed []AnswerEvent `json:"missed,omitempty"`

	// LastAnswer and LastReward describe the answer shown in Feedback.
	LastAnswer *AnswerEvent   `json:"lastAnswer,omitempty"`
	LastReward *reward.Result `json:"lastReward,omitempty"`

	// History is the learner's recent history plus this session's answers.
	// It feeds adaptive selection and the generator prompt.
	History []progress.Entry `json:"-"`

	// PriorQuestions holds question texts already asked, for deduplication.
	PriorQuestions []string `json:"-"`

	ChallengeCode string `json:"challengeCode,omitempty"`

	// ChallengeQuestions is the shared set in challenge modes.
	ChallengeQuestions []problemgen.Question `json:"-"`

	// ChallengeBacklog holds answers the challenge store has not accepted
	// yet, oldest first. They are resent before the next answer.
	ChallengeBacklog []challenge.Answer `json:"-"`

	StartedAt       time.Time `json:"startedAt"`
	QuestionShownAt time.Time `json:"questionShownAt"`
	EndedAt         time.Time `json:"endedAt,omitzero"`

	// Summary is set once the session is Complete.
	Summary *Summary `json:"summary,omitempty"`
}

// clone detaches every slice so a transition never writes through to the
// caller's copy.
func (s State) clone() State {
	s.Modules = slices.Clone(s.Modules)
	s.Operations = slices.Clone(s.Operations)
	s.Missed = slices.Clone(s.Missed)
	s.History = slices.Clone(s.History)
	s.PriorQuestions = slices.Clone(s.PriorQuestions)
	s.ChallengeBacklog = slices.Clone(s.ChallengeBacklog)
	return s
}

// Accuracy returns the percentage of correct answers, 0 before any answer.
func (s State) Accuracy() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalCount) * 100
}

// Remaining returns how many scored questions are left in a bounded session,
// or -1 in Play mode.
func (s State) Remaining() int {
	switch {
	case s.Mode == ModeTest:
		return max(TestQuestionCount-s.TotalCount, 0)
	case s.Mode.IsChallenge():
		return max(len(s.ChallengeQuestions)-s.QuestionIndex, 0)
	}
	return -1
}
