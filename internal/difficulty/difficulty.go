// Package difficulty maps a learner's accuracy to one of five tiers using
// grade-specific accuracy boundaries.
package difficulty

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathquest/internal/curriculum"
)

// Tier is a difficulty level.
type Tier int

const (
	VeryEasy Tier = iota
	Easy
	Medium
	Hard
	VeryHard
)

// AllTiers returns the tiers from easiest to hardest.
func AllTiers() []Tier {
	return []Tier{VeryEasy, Easy, Medium, Hard, VeryHard}
}

// String returns the lower-case tier name.
func (t Tier) String() string {
	switch t {
	case VeryEasy:
		return "Very Easy"
	case Easy:
		return "Easy"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	case VeryHard:
		return "Very Hard"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// ParseTier accepts "Easy", "very hard", "very_hard" and "VeryHard".
func ParseTier(s string) (Tier, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	for _, t := range AllTiers() {
		if key == strings.ReplaceAll(strings.ToLower(t.String()), " ", "") {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// MarshalText encodes a tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Thresholds are accuracy percentages bounding the veryEasy, easy, medium,
// hard and veryHard tiers.
type Thresholds [5]float64

// Younger bands reach the harder tiers at lower accuracy.
var gradeThresholds = map[curriculum.Grade]Thresholds{
	curriculum.GradeK1:  {30, 45, 60, 75, 90},
	curriculum.Grade23:  {40, 55, 70, 82, 92},
	curriculum.Grade45:  {50, 65, 78, 88, 95},
	curriculum.Grade68:  {55, 70, 82, 90, 96},
	curriculum.Grade912: {60, 75, 85, 92, 97},
}

// ThresholdsFor returns the boundaries for a grade; unknown grades use
// curriculum.DefaultGrade.
func ThresholdsFor(g curriculum.Grade) Thresholds {
	if th, ok := gradeThresholds[g]; ok {
		return th
	}
	return gradeThresholds[curriculum.DefaultGrade]
}

// Classification is the outcome of Classify.
type Classification struct {
	Tier         Tier    `json:"tier"`
	AccuracyPct  float64 `json:"accuracyPct"`
	ThresholdPct float64 `json:"thresholdPct"`
}

// Classify picks the first tier whose boundary the accuracy falls under. An
// accuracy at or above every boundary is VeryHard. Accuracy is 0 when total
// is 0.
func Classify(correct, total int, g curriculum.Grade) Classification {
	var acc float64
	if total > 0 {
		acc = float64(correct) / float64(total) * 100
	}
	th := ThresholdsFor(g)
	for i, boundary := range th {
		if acc < boundary {
			return Classification{Tier: Tier(i), AccuracyPct: acc, ThresholdPct: boundary}
		}
	}
	return Classification{Tier: VeryHard, AccuracyPct: acc, ThresholdPct: th[len(th)-1]}
}
