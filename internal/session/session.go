// Package session drives one learner through a question loop:
// Loading -> AwaitingAnswer -> Feedback -> (Loading | Complete).
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/extract"
	"github.com/abhisek/mathquest/internal/problemgen"
	"github.com/abhisek/mathquest/internal/progress"
	"github.com/abhisek/mathquest/internal/reward"
)

// HistoryWindow is how many recent answers feed tier classification,
// adaptive selection and the generator prompt.
const HistoryWindow = 50

// AnswerSink persists answer events.
type AnswerSink interface {
	SaveAnswerEvent(ctx context.Context, userID, sessionID string, ev AnswerEvent) error
}

// SummarySink persists end-of-session summaries.
type SummarySink interface {
	SaveSessionSummary(ctx context.Context, userID, sessionID string, s Summary) error
}

// Rewarder awards XP. It must not fail; *reward.Service satisfies it.
type Rewarder interface {
	Award(ctx context.Context, userID string, ev reward.Event) reward.Result
}

// ChallengeRecorder appends answers to a shared challenge record.
// *challenge.Service satisfies it.
type ChallengeRecorder interface {
	SubmitAnswer(ctx context.Context, code string, role challenge.Role, a challenge.Answer) (challenge.Challenge, error)
}

// Options describe a new session.
type Options struct {
	UserID  string
	Mode    Mode
	Grade   curriculum.Grade
	Modules []string

	// Challenge is required in challenge modes. Its grade, operations and
	// question set override Grade and Modules.
	Challenge *challenge.Challenge
}

// Controller implements the session transitions. It holds collaborators only;
// all per-session data lives in State.
type Controller struct {
	gen        problemgen.Generator
	history    progress.HistorySource
	rewards    Rewarder
	answers    AnswerSink
	summaries  SummarySink
	challenges ChallengeRecorder
	picker     OperationPicker
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory sets where adaptive sessions read past answers.
func WithHistory(h progress.HistorySource) Option {
	return func(c *Controller) { c.history = h }
}

// WithRewards enables XP and level tracking.
func WithRewards(r Rewarder) Option {
	return func(c *Controller) { c.rewards = r }
}

// WithAnswerSink records every scored answer.
func WithAnswerSink(s AnswerSink) Option {
	return func(c *Controller) { c.answers = s }
}

// WithSummarySink records each finished session.
func WithSummarySink(s SummarySink) Option {
	return func(c *Controller) { c.summaries = s }
}

// WithChallenges enables the challenge modes.
func WithChallenges(r ChallengeRecorder) Option {
	return func(c *Controller) { c.challenges = r }
}

// WithPicker overrides how adaptive sessions choose operations.
func WithPicker(p OperationPicker) Option {
	return func(c *Controller) {
		if p != nil {
			c.picker = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the controller logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a Controller that draws questions from gen.
func NewController(gen problemgen.Generator, opts ...Option) *Controller {
	c := &Controller{
		gen:    gen,
		picker: NewAdaptivePicker(nil),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start creates a session in the Loading phase. Call Load to fetch the first
// question.
func (c *Controller) Start(ctx context.Context, opts Options) (State, error) {
	if opts.UserID == "" {
		return State{}, errors.New("user id is required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModePlay
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return State{}, err
	}
	grade := opts.Grade
	if !grade.Valid() {
		grade = curriculum.DefaultGrade
	}

	st := State{
		ID:        uuid.NewString(),
		UserID:    opts.UserID,
		Mode:      mode,
		Phase:     PhaseLoading,
		Grade:     grade,
		Modules:   opts.Modules,
		StartedAt: c.now(),
	}

	if mode.IsChallenge() {
		if err := applyChallenge(&st, opts.Challenge); err != nil {
			return State{}, err
		}
	} else {
		ops, err := curriculum.OperationsFor(opts.Modules, grade)
		if err != nil {
			return State{}, err
		}
		st.Operations = ops
	}

	if c.history != nil {
		h, err := c.history.History(ctx, opts.UserID)
		if err != nil {
			c.logger.Warn("answer history unavailable", "user", opts.UserID, "error", err)
		}
		st.History = progress.Recent(h, HistoryWindow)
	}
	st.Tier = classify(st.History, st.Grade)

	c.logger.Info("session started", "session", st.ID, "user", st.UserID, "mode", st.Mode,
		"grade", st.Grade, "tier", st.Tier)
	return st.clone(), nil
}

func applyChallenge(st *State, ch *challenge.Challenge) error {
	if ch == nil {
		return errors.New("challenge modes need a challenge")
	}
	role, ok := ch.RoleOf(st.UserID)
	if !ok || role != st.Mode.Role() {
		return fmt.Errorf("user %q is not the %s of challenge %s", st.UserID, st.Mode.Role(), ch.Code)
	}
	if ch.Status != challenge.StatusActive {
		return challenge.ErrNotActive
	}
	st.Grade = ch.Grade
	st.Modules = nil
	st.Operations = ch.Operations
	st.ChallengeCode = ch.Code
	st.ChallengeQuestions = ch.Questions

	// Resume after answers already on the shared record.
	for _, a := range ch.AnswersFor(role) {
		st.QuestionIndex++
		st.TotalCount++
		if a.Correct {
			st.CorrectCount++
		}
	}
	return nil
}

// Load fetches the next question. A question whose answer cannot be derived
// moves straight to Feedback with Unscorable set; the session continues with
// Next. On error the state is returned unchanged so the caller can retry.
func (c *Controller) Load(ctx context.Context, st State) (State, error) {
	switch st.Phase {
	case PhaseComplete:
		return st, ErrSessionComplete
	case PhaseLoading:
	default:
		return st, ErrNotLoading
	}
	if exhausted(st) {
		return c.finish(ctx, st), nil
	}

	q, err := c.nextQuestion(ctx, st)
	if err != nil {
		return st, fmt.Errorf("failed to load question: %w", err)
	}

	next := st.clone()
	next.QuestionIndex++
	next.QuestionTier = next.Tier
	next.LastAnswer = nil
	next.LastReward = nil
	next.Unscorable = false
	next.PriorQuestions = append(next.PriorQuestions, q.Text)
	next.QuestionShownAt = c.now()

	if q.Answer == nil {
		if v, ok := extract.Extract(q.Text, q.Operation); ok {
			q = q.WithAnswer(v)
		}
	}
	next.Question = q

	if q.Answer == nil {
		c.logger.Warn("cannot extract answer", "session", next.ID, "operation", q.Operation, "question", q.Text)
		next.Unscorable = true
		next.Phase = PhaseFeedback
		if next.Mode.IsChallenge() {
			// Keep the shared answer sequence aligned with the question set.
			c.recordChallenge(ctx, &next, challenge.Answer{Index: next.QuestionIndex - 1, AnsweredAt: next.QuestionShownAt})
		}
		return next, nil
	}
	next.Phase = PhaseAwaitingAnswer
	return next, nil
}

func (c *Controller) nextQuestion(ctx context.Context, st State) (*problemgen.Question, error) {
	if st.Mode.IsChallenge() {
		q := st.ChallengeQuestions[st.QuestionIndex]
		return &q, nil
	}
	op := c.picker.Pick(st.Mode, st.Operations, st.History)
	return c.gen.Generate(ctx, problemgen.Input{
		UserID:         st.UserID,
		Grade:          st.Grade,
		Operation:      op,
		Modules:        st.Modules,
		Tier:           st.Tier,
		History:        st.History,
		PriorQuestions: st.PriorQuestions,
	})
}

// Submit scores raw against the current question. Invalid input returns
// ErrInvalidInput with the state unchanged. A second submit for the same
// question returns ErrAlreadyAnswered and changes nothing.
func (c *Controller) Submit(ctx context.Context, st State, raw string) (State, error) {
	switch st.Phase {
	case PhaseAwaitingAnswer:
	case PhaseFeedback:
		if st.Unscorable {
			return st, ErrUnscorable
		}
		return st, ErrAlreadyAnswered
	case PhaseComplete:
		return st, ErrSessionComplete
	default:
		return st, ErrNoQuestion
	}
	q := st.Question
	if q == nil {
		return st, ErrNoQuestion
	}
	if q.Answer == nil {
		return st, ErrUnscorable
	}

	given, err := answer.Parse(raw, q.Operation)
	if err != nil {
		return st, err
	}

	now := c.now()
	correct := answer.IsCorrect(q.Operation, given, *q.Answer)

	next := st.clone()
	streakBefore := next.CurrentStreak
	next.TotalCount++
	if correct {
		next.CorrectCount++
		next.CurrentStreak++
		next.BestStreak = max(next.BestStreak, next.CurrentStreak)
	} else {
		next.CurrentStreak = 0
	}

	res := c.award(ctx, next.UserID, reward.Event{Correct: correct, Streak: streakBefore, Tier: st.QuestionTier})
	next.XPEarned += res.XPEarned

	ev := AnswerEvent{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Operation:    q.Operation,
		Index:        next.QuestionIndex - 1,
		RawInput:     raw,
		Normalized:   given,
		Expected:     *q.Answer,
		Correct:      correct,
		TimeMs:       now.Sub(st.QuestionShownAt).Milliseconds(),
		Tier:         st.QuestionTier,
		XP:           res.XPEarned,
		AnsweredAt:   now,
	}
	if !correct {
		next.Missed = append(next.Missed, ev)
	}

	next.History = progress.Recent(append(next.History, progress.Entry{
		Operation: q.Operation,
		Correct:   correct,
		Timestamp: now,
	}), HistoryWindow)
	next.Tier = classify(next.History, next.Grade)

	if c.answers != nil {
		if err := c.answers.SaveAnswerEvent(ctx, next.UserID, next.ID, ev); err != nil {
			c.logger.Warn("failed to save answer event", "session", next.ID, "error", err)
		}
	}
	if next.Mode.IsChallenge() {
		c.recordChallenge(ctx, &next, challenge.Answer{
			Index:      ev.Index,
			Raw:        raw,
			Value:      given,
			Correct:    correct,
			TimeMs:     ev.TimeMs,
			AnsweredAt: now,
		})
	}

	next.LastAnswer = &ev
	next.LastReward = &res
	next.Phase = PhaseFeedback
	return next, nil
}

func (c *Controller) award(ctx context.Context, userID string, ev reward.Event) reward.Result {
	if c.rewards == nil {
		return reward.Result{XPEarned: reward.ComputeXP(ev.Correct, ev.Streak, ev.Tier)}
	}
	return c.rewards.Award(ctx, userID, ev)
}

// recordChallenge queues a on the backlog and flushes it in order. A store
// error leaves the rest queued for the next call. Answers the store already
// holds, or can no longer take, are dropped.
func (c *Controller) recordChallenge(ctx context.Context, st *State, a challenge.Answer) {
	st.ChallengeBacklog = append(st.ChallengeBacklog, a)
	c.flushChallenge(ctx, st)
}

func (c *Controller) flushChallenge(ctx context.Context, st *State) {
	if c.challenges == nil {
		st.ChallengeBacklog = nil
		return
	}
	for len(st.ChallengeBacklog) > 0 {
		a := st.ChallengeBacklog[0]
		_, err := c.challenges.SubmitAnswer(ctx, st.ChallengeCode, st.Mode.Role(), a)
		switch {
		case err == nil:
		case errors.Is(err, challenge.ErrOutOfOrder),
			errors.Is(err, challenge.ErrNotActive),
			errors.Is(err, challenge.ErrNotFound):
			c.logger.Warn("dropping challenge answer", "session", st.ID, "challenge", st.ChallengeCode,
				"index", a.Index, "error", err)
		default:
			c.logger.Warn("failed to save challenge answer", "session", st.ID, "challenge", st.ChallengeCode,
				"index", a.Index, "pending", len(st.ChallengeBacklog), "error", err)
			return
		}
		st.ChallengeBacklog = st.ChallengeBacklog[1:]
	}
	st.ChallengeBacklog = nil
}

// Next leaves Feedback. Bounded sessions complete once their questions are
// used up; otherwise the next question is loaded.
func (c *Controller) Next(ctx context.Context, st State) (State, error) {
	switch st.Phase {
	case PhaseFeedback:
	case PhaseComplete:
		return st, ErrSessionComplete
	case PhaseAwaitingAnswer:
		return st, ErrAwaitingAnswer
	default:
		return st, ErrNoQuestion
	}

	next := st.clone()
	next.Phase = PhaseLoading
	next.Question = nil
	next.Unscorable = false
	if exhausted(next) {
		return c.finish(ctx, next), nil
	}
	return c.Load(ctx, next)
}

// End completes the session from any phase and returns the final state with
// its Summary. Ending an already complete session is a no-op.
func (c *Controller) End(ctx context.Context, st State) (State, error) {
	if st.Phase == PhaseComplete {
		return st, nil
	}
	return c.finish(ctx, st), nil
}

func (c *Controller) finish(ctx context.Context, st State) State {
	next := st.clone()
	if len(next.ChallengeBacklog) > 0 {
		c.flushChallenge(ctx, &next)
	}
	next.Phase = PhaseComplete
	next.EndedAt = c.now()
	summary := BuildSummary(next, next.EndedAt)
	next.Summary = &summary

	if c.summaries != nil {
		if err := c.summaries.SaveSessionSummary(ctx, next.UserID, next.ID, summary); err != nil {
			c.logger.Warn("failed to save session summary", "session", next.ID, "error", err)
		}
	}
	c.logger.Info("session ended", "session", next.ID, "mode", next.Mode,
		"score", summary.Score, "total", summary.Total, "xp", summary.XPEarned)
	return next
}

func exhausted(st State) bool {
	switch {
	case st.Mode == ModeTest:
		return st.TotalCount >= TestQuestionCount
	case st.Mode.IsChallenge():
		return st.QuestionIndex >= len(st.ChallengeQuestions)
	}
	return false
}

func classify(history []progress.Entry, g curriculum.Grade) difficulty.Tier {
	correct := 0
	for _, e := range history {
		if e.Correct {
			correct++
		}
	}
	return difficulty.Classify(correct, len(history), g).Tier
}
