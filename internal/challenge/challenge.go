// Package challenge runs two-player challenges: both players answer the same
// fixed question set and the challenge completes when both have answered
// every question.
package challenge

import (
	"slices"
	"time"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/problemgen"
)

// Status is the lifecycle state of a challenge. It only moves forward:
// Waiting -> Active -> Completed.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Role identifies which player an answer belongs to.
type Role string

const (
	RoleCreator  Role = "creator"
	RoleOpponent Role = "opponent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleOpponent
}

// Answer is one player's answer to one shared question.
type Answer struct {
	Index      int          `json:"index"`
	Raw        string       `json:"raw"`
	Value      answer.Value `json:"value"`
	Correct    bool         `json:"correct"`
	TimeMs     int64        `json:"timeMs"`
	AnsweredAt time.Time    `json:"answeredAt"`
}

// Challenge is the shared record both players read and append to.
type Challenge struct {
	Code       string                 `json:"code"`
	CreatorID  string                 `json:"creatorId"`
	OpponentID string                 `json:"opponentId,omitempty"`
	Grade      curriculum.Grade       `json:"grade"`
	Operations []curriculum.Operation `json:"operations"`

	// Questions is materialized once at creation and never changes.
	Questions []problemgen.Question `json:"questions"`

	CreatorAnswers  []Answer `json:"creatorAnswers"`
	OpponentAnswers []Answer `json:"opponentAnswers"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AnswersFor returns the answer sequence of role.
func (c Challenge) AnswersFor(r Role) []Answer {
	if r == RoleOpponent {
		return c.OpponentAnswers
	}
	return c.CreatorAnswers
}

// BothFinished reports whether both answer sequences reached the length of
// the question set.
func (c Challenge) BothFinished() bool {
	n := len(c.Questions)
	return n > 0 && len(c.CreatorAnswers) >= n && len(c.OpponentAnswers) >= n
}

// RoleOf returns the role userID plays in c.
func (c Challenge) RoleOf(userID string) (Role, bool) {
	switch {
	case userID == "":
		return "", false
	case userID == c.CreatorID:
		return RoleCreator, true
	case userID == c.OpponentID:
		return RoleOpponent, true
	}
	return "", false
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c Challenge) Clone() Challenge {
	c.Operations = slices.Clone(c.Operations)
	c.Questions = slices.Clone(c.Questions)
	c.CreatorAnswers = slices.Clone(c.CreatorAnswers)
	c.OpponentAnswers = slices.Clone(c.OpponentAnswers)
	return c
}

// Scoreboard is the live score view of a challenge.
type Scoreboard struct {
	Code             string `json:"code"`
	Status           Status `json:"status"`
	Total            int    `json:"total"`
	CreatorAnswered  int    `json:"creatorAnswered"`
	CreatorCorrect   int    `json:"creatorCorrect"`
	OpponentAnswered int    `json:"opponentAnswered"`
	OpponentCorrect  int    `json:"opponentCorrect"`

	// Winner is "creator", "opponent" or "tie" once completed, empty before.
	Winner string `json:"winner,omitempty"`
}

// Score builds the scoreboard for c.
func Score(c Challenge) Scoreboard {
	sb := Scoreboard{
		Code:             c.Code,
		Status:           c.Status,
		Total:            len(c.Questions),
		CreatorAnswered:  len(c.CreatorAnswers),
		CreatorCorrect:   countCorrect(c.CreatorAnswers),
		OpponentAnswered: len(c.OpponentAnswers),
		OpponentCorrect:  countCorrect(c.OpponentAnswers),
	}
	if c.Status == StatusCompleted {
		switch {
		case sb.CreatorCorrect > sb.OpponentCorrect:
			sb.Winner = string(RoleCreator)
		case sb.OpponentCorrect > sb.CreatorCorrect:
			sb.Winner = string(RoleOpponent)
		default:
			sb.Winner = "tie"
		}
	}
	return sb
}

func countCorrect(answers []Answer) int {
	n := 0
	for _, a := range answers {
		if a.Correct {
			n++
		}
	}
	return n
}
