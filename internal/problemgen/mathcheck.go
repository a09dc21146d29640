package problemgen

import (
	"fmt"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/extract"
)

// MathCheckValidator independently recomputes the answer from the question
// text and rejects questions whose supplied answer disagrees. Only families
// whose extractors compute rather than guess are checked; everything else
// passes through silently.
type MathCheckValidator struct{}

// Name identifies the validator in logs.
func (v *MathCheckValidator) Name() string { return "math-check" }

// Validate recomputes the answer from the question text where it can.
func (v *MathCheckValidator) Validate(q *Question, _ Input) *ValidationError {
	if q.Answer == nil || !checkable(q.Operation) {
		return nil
	}
	computed, ok := extract.Extract(q.Text, q.Operation)
	if !ok {
		// Not computable (word problem, comparison, etc.).
		return nil
	}
	if !answer.IsCorrect(q.Operation, *q.Answer, computed) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("computed %q but generator claimed %q", computed, q.Answer),
			Retryable: true,
		}
	}
	return nil
}

func checkable(op curriculum.Operation) bool {
	switch op.Family() {
	case curriculum.FamilyArithmetic, curriculum.FamilyExponents:
		return true
	}
	return false
}
