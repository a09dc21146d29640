package problemgen

import (
	"fmt"

	"github.com/abhisek/mathquest/internal/answer"
)

// AnswerFormatValidator checks that a supplied answer has the kind its
// operation compares by: text for pattern questions, a number otherwise.
// Questions without an answer pass; the session extracts one later.
type AnswerFormatValidator struct{}

// Name identifies the validator in logs.
func (v *AnswerFormatValidator) Name() string { return "answer-format" }

// Validate checks that the answer has the shape its operation expects.
func (v *AnswerFormatValidator) Validate(q *Question, _ Input) *ValidationError {
	if q.Answer == nil {
		return nil
	}
	if q.Operation.IsTextual() {
		if q.Answer.Kind != answer.KindText || q.Answer.Str == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("answer %q must be non-empty text for %s", q.Answer, q.Operation),
				Retryable: true,
			}
		}
		return nil
	}
	if !q.Answer.IsNumber() {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("answer %q is not a number", q.Answer),
			Retryable: true,
		}
	}
	return nil
}
