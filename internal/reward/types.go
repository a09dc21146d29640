package reward

import (
	"context"

	"github.com/abhisek/mathquest/internal/difficulty"
)

// DateLayout is the format of State.LastActiveDate.
const DateLayout = "2006-01-02"

// State is a learner's stored reward record.
type State struct {
	TotalXP            int    `json:"totalXP"`
	Level              int    `json:"level"`
	DailyQuestionCount int    `json:"dailyQuestionCount"`
	DailyGoal          int    `json:"dailyGoal"`
	LastActiveDate     string `json:"lastActiveDate"`
}

// Award is one atomic update applied by a Store.
type Award struct {
	XP        int
	Today     string
	DailyGoal int
}

// Apply returns the state after a. The daily counter restarts at 1 on a new
// day. Total XP and level only change when a.XP is positive. Stores that
// cannot run Go inside their transaction must reproduce these rules.
func (s State) Apply(a Award) State {
	if s.LastActiveDate != a.Today {
		s.DailyQuestionCount = 1
	} else {
		s.DailyQuestionCount++
	}
	s.LastActiveDate = a.Today
	if s.DailyGoal == 0 {
		s.DailyGoal = a.DailyGoal
	}
	if a.XP > 0 {
		s.TotalXP += a.XP
	}
	s.Level = LevelForXP(s.TotalXP)
	return s
}

// Store owns reward records. ApplyAward must be atomic per user: two
// concurrent calls for the same user must both be reflected in the result.
type Store interface {
	GetRewardState(ctx context.Context, userID string) (State, error)
	ApplyAward(ctx context.Context, userID string, a Award) (State, error)
}

// Event describes the answer being rewarded.
type Event struct {
	Correct bool
	Streak  int
	Tier    difficulty.Tier
}

// Result is what the learner sees after an award.
type Result struct {
	XPEarned           int  `json:"xpEarned"`
	NewTotalXP         int  `json:"newTotalXP"`
	NewLevel           int  `json:"newLevel"`
	LeveledUp          bool `json:"leveledUp"`
	DailyQuestionCount int  `json:"dailyQuestionCount"`
	DailyGoal          int  `json:"dailyGoal"`
}
