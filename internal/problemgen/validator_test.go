package problemgen

import (
	"strings"
	"testing"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
)

func numQuestion(op curriculum.Operation, text string, ans float64) *Question {
	v := answer.Number(ans)
	return &Question{Text: text, Operation: op, Answer: &v}
}

func TestStructuralValidator(t *testing.T) {
	v := &StructuralValidator{}
	input := testInput(curriculum.OpAddition)

	tests := []struct {
		name      string
		q         *Question
		wantErr   bool
		retryable bool
	}{
		{"valid", numQuestion(curriculum.OpAddition, "What is 1 + 1?", 2), false, false},
		{"empty text", numQuestion(curriculum.OpAddition, "", 2), true, true},
		{"long text", numQuestion(curriculum.OpAddition, strings.Repeat("a", 501), 2), true, true},
		{"wrong operation", numQuestion(curriculum.OpDivision, "What is 4 ÷ 2?", 2), true, false},
		{"long explanation", &Question{Text: "What is 1 + 1?", Operation: curriculum.OpAddition, Explanation: strings.Repeat("b", 1001)}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.q, input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
		})
	}
}

func TestAnswerFormatValidator(t *testing.T) {
	v := &AnswerFormatValidator{}
	text := func(op curriculum.Operation, s string) *Question {
		a := answer.Text(s)
		return &Question{Text: "q", Operation: op, Answer: &a}
	}

	tests := []struct {
		name    string
		q       *Question
		wantErr bool
	}{
		{"nil answer", &Question{Text: "q", Operation: curriculum.OpAddition}, false},
		{"numeric", numQuestion(curriculum.OpAddition, "q", 4), false},
		{"text for numeric op", text(curriculum.OpAddition, "four"), true},
		{"text for pattern", text(curriculum.OpLogicPatterns, "I"), false},
		{"empty text for pattern", text(curriculum.OpLogicPatterns, ""), true},
		{"number for pattern", numQuestion(curriculum.OpLogicPatterns, "q", 9), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.q, Input{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMathCheckValidator(t *testing.T) {
	v := &MathCheckValidator{}

	tests := []struct {
		name    string
		q       *Question
		wantErr bool
	}{
		{"addition correct", numQuestion(curriculum.OpAddition, "What is 345 + 278?", 623), false},
		{"addition wrong", numQuestion(curriculum.OpAddition, "What is 345 + 278?", 612), true},
		{"subtraction correct", numQuestion(curriculum.OpSubtraction, "567 - 289 = ?", 278), false},
		{"multiplication wrong", numQuestion(curriculum.OpMultiplication, "What is 12 × 11?", 121), true},
		{"division correct", numQuestion(curriculum.OpDivision, "What is 84 ÷ 7?", 12), false},
		{"decimals within tolerance", numQuestion(curriculum.OpDecimals, "What is 0.1 + 0.2?", 0.3), false},
		{"exponent correct", numQuestion(curriculum.OpExponents, "What is 2^5?", 32), false},
		{"exponent wrong", numQuestion(curriculum.OpExponents, "What is 2^5?", 10), true},
		{"word problem passes", numQuestion(curriculum.OpAddition, "Sam has some apples and gets more. How many now?", 9), false},
		{"unchecked family", numQuestion(curriculum.OpCalculus, "What is the derivative of x^2 at x = 3?", 6), false},
		{"nil answer", &Question{Text: "What is 2 + 2?", Operation: curriculum.OpAddition}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.q, Input{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !err.Retryable {
				t.Error("math-check failures should be retryable")
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Validator: "structural", Message: "question_text is empty"}
	want := `validator "structural": question_text is empty`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
