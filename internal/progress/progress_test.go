package progress

import (
	"testing"
	"time"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
)

func TestCompute_Scenario(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	history := []Entry{
		{Operation: curriculum.OpAddition, Correct: true, Timestamp: now.Add(-4 * time.Minute)},
		{Operation: curriculum.OpAddition, Correct: true, Timestamp: now.Add(-3 * time.Minute)},
		{Operation: curriculum.OpMultiplication, Correct: true, Timestamp: now.Add(-2 * time.Minute)},
		{Operation: curriculum.OpFractions, Correct: false, Timestamp: now.Add(-1 * time.Minute)},
	}

	got := Compute(history, curriculum.Grade45, now)

	if got.TotalQuestions != 4 {
		t.Errorf("TotalQuestions = %d, want 4", got.TotalQuestions)
	}
	if got.Accuracy != 75 {
		t.Errorf("Accuracy = %d, want 75", got.Accuracy)
	}
	if got.Streak != 1 {
		t.Errorf("Streak = %d, want 1", got.Streak)
	}
	if len(got.WeakAreas) != 3 {
		t.Fatalf("got %d weak areas, want 3", len(got.WeakAreas))
	}
	if got.WeakAreas[0].Operation != curriculum.OpFractions || got.WeakAreas[0].AccuracyPct != 0 {
		t.Errorf("WeakAreas[0] = %+v, want fractions at 0%%", got.WeakAreas[0])
	}
	for i := 1; i < len(got.WeakAreas); i++ {
		if got.WeakAreas[i].AccuracyPct < got.WeakAreas[i-1].AccuracyPct {
			t.Errorf("weak areas not ascending: %+v", got.WeakAreas)
		}
	}
	if got.Difficulty.Tier != difficulty.Medium {
		t.Errorf("Difficulty.Tier = %v, want Medium", got.Difficulty.Tier)
	}

	wantOps := []OperationStat{
		{Operation: curriculum.OpAddition, Attempted: 2, Correct: 2, AccuracyPct: 100},
		{Operation: curriculum.OpMultiplication, Attempted: 1, Correct: 1, AccuracyPct: 100},
		{Operation: curriculum.OpFractions, Attempted: 1, Correct: 0, AccuracyPct: 0},
	}
	if len(got.ByOperation) != len(wantOps) {
		t.Fatalf("ByOperation = %+v, want %d entries", got.ByOperation, len(wantOps))
	}
	for i, want := range wantOps {
		if got.ByOperation[i] != want {
			t.Errorf("ByOperation[%d] = %+v, want %+v", i, got.ByOperation[i], want)
		}
	}
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil, curriculum.Grade45, time.Now())
	if got.TotalQuestions != 0 || got.Accuracy != 0 || got.Streak != 0 || len(got.WeakAreas) != 0 {
		t.Errorf("Compute(nil) = %+v, want zero stats", got)
	}
}

func TestDayStreak(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	day := func(offset int) Entry {
		return Entry{Operation: curriculum.OpAddition, Timestamp: now.AddDate(0, 0, offset)}
	}

	tests := []struct {
		name    string
		history []Entry
		want    int
	}{
		{"today only", []Entry{day(0)}, 1},
		{"three days in a row", []Entry{day(-2), day(-1), day(0)}, 3},
		{"ending yesterday still counts", []Entry{day(-2), day(-1)}, 2},
		{"gap breaks the streak", []Entry{day(-4), day(-3), day(-1), day(0)}, 2},
		{"last active two days ago", []Entry{day(-3), day(-2)}, 0},
		{"several answers on one day", []Entry{day(0), day(0), day(0)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayStreak(tt.history, now); got != tt.want {
				t.Errorf("DayStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWeakAreas_TieBreak(t *testing.T) {
	history := []Entry{
		{Operation: curriculum.OpSubtraction, Correct: true},
		{Operation: curriculum.OpSubtraction, Correct: false},
		{Operation: curriculum.OpDivision, Correct: false},
		{Operation: curriculum.OpDivision, Correct: true},
		{Operation: curriculum.OpDivision, Correct: false},
		{Operation: curriculum.OpDivision, Correct: true},
		{Operation: curriculum.OpAlgebra, Correct: true},
		{Operation: curriculum.OpAlgebra, Correct: false},
	}
	got := WeakAreas(history)
	want := []curriculum.Operation{curriculum.OpAlgebra, curriculum.OpSubtraction, curriculum.OpDivision}
	for i, op := range want {
		if got[i].Operation != op {
			t.Errorf("WeakAreas[%d] = %q, want %q", i, got[i].Operation, op)
		}
	}
}

func TestRecent(t *testing.T) {
	history := make([]Entry, 10)
	for i := range history {
		history[i].Timestamp = time.Unix(int64(i), 0)
	}
	got := Recent(history, 3)
	if len(got) != 3 || got[0].Timestamp.Unix() != 7 {
		t.Errorf("Recent = %+v", got)
	}
	if len(Recent(history, 0)) != 10 {
		t.Error("Recent(0) should return everything")
	}
}
