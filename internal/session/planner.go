package session

import (
	"math/rand/v2"
	"sync"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/progress"
)

// AdaptiveWeight is the share of Play-mode questions aimed at the learner's
// weakest operation.
const AdaptiveWeight = 0.7

// OperationPicker chooses the operation for the next question.
type OperationPicker interface {
	Pick(mode Mode, ops []curriculum.Operation, history []progress.Entry) curriculum.Operation
}

// AdaptivePicker picks the weakest operation AdaptiveWeight of the time in
// Play mode and uniformly otherwise. Test mode is always uniform.
type AdaptivePicker struct {
	mu     sync.Mutex
	rng    *rand.Rand
	weight float64
}

// NewAdaptivePicker creates a picker. A nil rng uses a random seed.
func NewAdaptivePicker(rng *rand.Rand) *AdaptivePicker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &AdaptivePicker{rng: rng, weight: AdaptiveWeight}
}

// Pick implements OperationPicker.
func (p *AdaptivePicker) Pick(mode Mode, ops []curriculum.Operation, history []progress.Entry) curriculum.Operation {
	if len(ops) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if mode == ModePlay && p.rng.Float64() < p.weight {
		if op, ok := weakest(ops, history); ok {
			return op
		}
	}
	return ops[p.rng.IntN(len(ops))]
}

// weakest returns the attempted operation in ops with the lowest accuracy.
// Reports false when none of ops has history yet.
func weakest(ops []curriculum.Operation, history []progress.Entry) (curriculum.Operation, bool) {
	allowed := make(map[curriculum.Operation]bool, len(ops))
	for _, op := range ops {
		allowed[op] = true
	}
	for _, stat := range progress.WeakAreas(history) {
		if allowed[stat.Operation] {
			return stat.Operation, true
		}
	}
	return "", false
}
