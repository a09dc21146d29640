package reward

import "github.com/abhisek/mathquest/internal/difficulty"

const (
	// BaseXP is earned for every correct answer.
	BaseXP = 10

	// StreakBonusPerAnswer is added per answer in the current streak.
	StreakBonusPerAnswer = 2

	// MaxStreakBonus caps the streak bonus.
	MaxStreakBonus = 20

	// MaxLevel is the highest level; XP beyond its threshold saturates.
	MaxLevel = 10

	// DefaultDailyGoal is the number of questions a learner aims for each day.
	DefaultDailyGoal = 20
)

// LevelThresholds holds the minimum total XP for levels 1..MaxLevel.
var LevelThresholds = [MaxLevel]int{0, 100, 250, 500, 800, 1200, 1700, 2500, 3500, 5000}

// TierBonus returns the extra XP for answering at a difficulty tier.
func TierBonus(t difficulty.Tier) int {
	switch t {
	case difficulty.Medium:
		return 5
	case difficulty.Hard:
		return 10
	case difficulty.VeryHard:
		return 15
	default:
		return 0
	}
}

// ComputeXP returns the XP earned for one answer.
func ComputeXP(correct bool, streak int, tier difficulty.Tier) int {
	if !correct {
		return 0
	}
	bonus := streak * StreakBonusPerAnswer
	if bonus > MaxStreakBonus {
		bonus = MaxStreakBonus
	}
	if bonus < 0 {
		bonus = 0
	}
	return BaseXP + bonus + TierBonus(tier)
}

// LevelForXP returns the 1-indexed level for a total XP.
func LevelForXP(xp int) int {
	level := 1
	for i, t := range LevelThresholds {
		if xp >= t {
			level = i + 1
		}
	}
	return level
}

// XPToNextLevel returns the XP still needed to reach the next level, or 0 at
// MaxLevel.
func XPToNextLevel(xp int) int {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	return LevelThresholds[level] - xp
}

// LevelProgress returns how far xp is through the current level's band, in
// [0, 1]. It is 1 at MaxLevel.
func LevelProgress(xp int) float64 {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 1
	}
	lo, hi := LevelThresholds[level-1], LevelThresholds[level]
	p := float64(xp-lo) / float64(hi-lo)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
