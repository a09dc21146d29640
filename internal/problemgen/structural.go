package problemgen

import "fmt"

const (
	maxQuestionLen    = 500
	maxExplanationLen = 1000
)

// StructuralValidator checks that required fields are present and within
// length limits, and that the question is for the requested operation.
type StructuralValidator struct{}

// Name identifies the validator in logs.
func (v *StructuralValidator) Name() string { return "structural" }

// Validate rejects empty or oversized text and a mismatched operation.
func (v *StructuralValidator) Validate(q *Question, input Input) *ValidationError {
	if q.Text == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question_text is empty",
			Retryable: true,
		}
	}
	if len(q.Text) > maxQuestionLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("question_text exceeds %d characters", maxQuestionLen),
			Retryable: true,
		}
	}
	if len(q.Explanation) > maxExplanationLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("explanation exceeds %d characters", maxExplanationLen),
			Retryable: true,
		}
	}
	if q.Operation != input.Operation {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("question is for %q, requested %q", q.Operation, input.Operation),
			Retryable: false,
		}
	}
	return nil
}
