// Package progress summarizes a learner's answer history for dashboards and
// adaptive question selection.
package progress

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
)

// Entry is one answered question in a learner's history.
type Entry struct {
	Operation curriculum.Operation `json:"operation"`
	Correct   bool                 `json:"correct"`
	Timestamp time.Time            `json:"timestamp"`
}

// HistorySource returns a learner's history, oldest first.
type HistorySource interface {
	History(ctx context.Context, userID string) ([]Entry, error)
}

// OperationStat is accuracy for one operation.
type OperationStat struct {
	Operation   curriculum.Operation `json:"operation"`
	Attempted   int                  `json:"attempted"`
	Correct     int                  `json:"correct"`
	AccuracyPct float64              `json:"accuracyPct"`
}

// Stats is the dashboard summary for a learner.
type Stats struct {
	TotalQuestions int                       `json:"totalQuestions"`
	CorrectAnswers int                       `json:"correctAnswers"`
	Accuracy       int                       `json:"accuracy"`
	Streak         int                       `json:"streak"`
	WeakAreas      []OperationStat           `json:"weakAreas"`
	Difficulty     difficulty.Classification `json:"difficulty"`

	// ByOperation is per-operation accuracy in first-seen order.
	ByOperation []OperationStat `json:"byOperation"`
}

// Compute builds Stats from history. Streak counts consecutive calendar days
// with at least one answer, ending today or yesterday in now's location.
func Compute(history []Entry, grade curriculum.Grade, now time.Time) Stats {
	var s Stats
	for _, e := range history {
		s.TotalQuestions++
		if e.Correct {
			s.CorrectAnswers++
		}
	}
	if s.TotalQuestions > 0 {
		s.Accuracy = int(math.Round(float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100))
	}
	s.Streak = DayStreak(history, now)
	s.ByOperation = ByOperation(history)
	s.WeakAreas = WeakAreas(history)
	s.Difficulty = difficulty.Classify(s.CorrectAnswers, s.TotalQuestions, grade)
	return s
}

// ByOperation tallies attempts per operation in first-seen order.
func ByOperation(history []Entry) []OperationStat {
	index := make(map[curriculum.Operation]int)
	var out []OperationStat
	for _, e := range history {
		i, ok := index[e.Operation]
		if !ok {
			i = len(out)
			index[e.Operation] = i
			out = append(out, OperationStat{Operation: e.Operation})
		}
		out[i].Attempted++
		if e.Correct {
			out[i].Correct++
		}
	}
	for i := range out {
		out[i].AccuracyPct = float64(out[i].Correct) / float64(out[i].Attempted) * 100
	}
	return out
}

// WeakAreas returns per-operation accuracy, weakest first. Ties go to the
// operation with fewer attempts, then by name.
func WeakAreas(history []Entry) []OperationStat {
	stats := ByOperation(history)
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.AccuracyPct != b.AccuracyPct {
			return a.AccuracyPct < b.AccuracyPct
		}
		if a.Attempted != b.Attempted {
			return a.Attempted < b.Attempted
		}
		return a.Operation < b.Operation
	})
	return stats
}

// DayStreak counts consecutive active days ending today or yesterday.
func DayStreak(history []Entry, now time.Time) int {
	loc := now.Location()
	active := make(map[string]bool)
	for _, e := range history {
		active[e.Timestamp.In(loc).Format("2006-01-02")] = true
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if !active[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for active[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Recent returns at most n of the newest entries, oldest first.
func Recent(history []Entry, n int) []Entry {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
