package reward

import (
	"context"
	"log/slog"
	"time"
)

// Service awards XP through a Store and never fails: persistence errors are
// logged and turned into a zero-credit result built from the last known state.
type Service struct {
	store     Store
	dailyGoal int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDailyGoal sets the goal recorded for learners without one.
func WithDailyGoal(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dailyGoal = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a reward service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		dailyGoal: DefaultDailyGoal,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the stored reward state, with the default daily goal filled
// in for new learners.
func (s *Service) State(ctx context.Context, userID string) (State, error) {
	st, err := s.store.GetRewardState(ctx, userID)
	if err != nil {
		return State{}, err
	}
	if st.DailyGoal == 0 {
		st.DailyGoal = s.dailyGoal
	}
	if st.Level == 0 {
		st.Level = LevelForXP(st.TotalXP)
	}
	return st, nil
}

// Award computes the XP for ev and applies it for userID.
func (s *Service) Award(ctx context.Context, userID string, ev Event) Result {
	prior, err := s.State(ctx, userID)
	if err != nil {
		s.logger.Warn("reward state read failed", "user", userID, "error", err)
		return fallback(State{Level: 1, DailyGoal: s.dailyGoal})
	}

	xp := ComputeXP(ev.Correct, ev.Streak, ev.Tier)
	post, err := s.store.ApplyAward(ctx, userID, Award{
		XP:        xp,
		Today:     s.now().Format(DateLayout),
		DailyGoal: s.dailyGoal,
	})
	if err != nil {
		s.logger.Warn("reward award failed", "user", userID, "xp", xp, "error", err)
		return fallback(prior)
	}

	// Derive the previous level from the post-update total so a concurrent
	// award between our read and write is not reported as our level-up.
	oldLevel := LevelForXP(post.TotalXP - xp)
	return Result{
		XPEarned:           xp,
		NewTotalXP:         post.TotalXP,
		NewLevel:           post.Level,
		LeveledUp:          post.Level > oldLevel,
		DailyQuestionCount: post.DailyQuestionCount,
		DailyGoal:          post.DailyGoal,
	}
}

func fallback(prior State) Result {
	return Result{
		XPEarned:           0,
		NewTotalXP:         prior.TotalXP,
		NewLevel:           LevelForXP(prior.TotalXP),
		LeveledUp:          false,
		DailyQuestionCount: prior.DailyQuestionCount,
		DailyGoal:          prior.DailyGoal,
	}
}
