package session

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/progress"
)

func pickShare(p *AdaptivePicker, mode Mode, ops []curriculum.Operation, history []progress.Entry, want curriculum.Operation) float64 {
	const n = 4000
	hits := 0
	for range n {
		if p.Pick(mode, ops, history) == want {
			hits++
		}
	}
	return float64(hits) / n
}

func TestAdaptivePicker(t *testing.T) {
	now := time.Now()
	ops := []curriculum.Operation{curriculum.OpAddition, curriculum.OpSubtraction}
	history := []progress.Entry{
		{Operation: curriculum.OpAddition, Correct: true, Timestamp: now},
		{Operation: curriculum.OpAddition, Correct: true, Timestamp: now},
		{Operation: curriculum.OpSubtraction, Correct: false, Timestamp: now},
		{Operation: curriculum.OpDivision, Correct: false, Timestamp: now},
	}

	tests := []struct {
		name    string
		mode    Mode
		history []progress.Entry
		lo, hi  float64
	}{
		// 0.7 adaptive plus half of the uniform 0.3.
		{"play favours weakest", ModePlay, history, 0.80, 0.90},
		{"test is uniform", ModeTest, history, 0.45, 0.55},
		{"no history is uniform", ModePlay, nil, 0.45, 0.55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewAdaptivePicker(rand.New(rand.NewPCG(42, 42)))
			share := pickShare(p, tt.mode, ops, tt.history, curriculum.OpSubtraction)
			if share < tt.lo || share > tt.hi {
				t.Errorf("subtraction share = %.3f, want in [%.2f, %.2f]", share, tt.lo, tt.hi)
			}
		})
	}
}

func TestAdaptivePicker_IgnoresUnselectedOperations(t *testing.T) {
	history := []progress.Entry{
		{Operation: curriculum.OpDivision, Correct: false},
		{Operation: curriculum.OpAddition, Correct: true},
	}
	p := NewAdaptivePicker(rand.New(rand.NewPCG(1, 1)))
	for range 100 {
		if op := p.Pick(ModePlay, []curriculum.Operation{curriculum.OpAddition}, history); op != curriculum.OpAddition {
			t.Fatalf("picked %s outside the selection", op)
		}
	}
	if op := p.Pick(ModePlay, nil, history); op != "" {
		t.Errorf("empty selection picked %s", op)
	}
}
