package problemgen

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/extract"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestTemplateGenerator_CoversEveryOperation(t *testing.T) {
	gen := NewTemplateGenerator(seeded(1))

	for _, op := range curriculum.AllOperations() {
		t.Run(string(op), func(t *testing.T) {
			q, err := gen.Generate(context.Background(), testInput(op))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Text == "" {
				t.Fatal("empty question text")
			}
			if q.Answer == nil {
				t.Fatal("template questions must carry an answer")
			}
			if q.Operation != op {
				t.Errorf("operation = %q, want %q", q.Operation, op)
			}
			if q.Source != SourceTemplate {
				t.Errorf("source = %q, want template", q.Source)
			}
			if op.IsTextual() == q.Answer.IsNumber() {
				t.Errorf("answer kind mismatch for %s: %v", op, q.Answer)
			}
		})
	}
}

func TestTemplateGenerator_AgreesWithExtractor(t *testing.T) {
	gen := NewTemplateGenerator(seeded(7))

	for _, op := range curriculum.AllOperations() {
		// Calculus extraction is a lookup table with a placeholder default.
		if op == curriculum.OpCalculus {
			continue
		}
		for _, tier := range difficulty.AllTiers() {
			for i := 0; i < 20; i++ {
				input := testInput(op)
				input.Tier = tier
				q, err := gen.Generate(context.Background(), input)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got, ok := extract.Extract(q.Text, op)
				if !ok {
					continue
				}
				if !answer.IsCorrect(op, got, *q.Answer) {
					t.Errorf("%s: %q extracted %v, template answer %v", op, q.Text, got, q.Answer)
				}
			}
		}
	}
}

func TestTemplateGenerator_Deterministic(t *testing.T) {
	a := NewTemplateGenerator(seeded(42))
	b := NewTemplateGenerator(seeded(42))

	for _, op := range curriculum.AllOperations() {
		qa, _ := a.Generate(context.Background(), testInput(op))
		qb, _ := b.Generate(context.Background(), testInput(op))
		if qa.Text != qb.Text {
			t.Errorf("%s: %q != %q", op, qa.Text, qb.Text)
		}
	}
}

func TestTemplateGenerator_AvoidsPriorQuestions(t *testing.T) {
	first, _ := NewTemplateGenerator(seeded(3)).Generate(context.Background(), testInput(curriculum.OpAddition))

	input := testInput(curriculum.OpAddition)
	input.PriorQuestions = []string{first.Text}
	again, err := NewTemplateGenerator(seeded(3)).Generate(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Text == first.Text {
		t.Errorf("repeated prior question %q", first.Text)
	}
}

func TestTemplateGenerator_SmallNumbersForYoungGrades(t *testing.T) {
	gen := NewTemplateGenerator(seeded(9))
	input := testInput(curriculum.OpAddition)
	input.Grade = curriculum.GradeK1
	input.Tier = difficulty.VeryEasy

	for i := 0; i < 50; i++ {
		q, _ := gen.Generate(context.Background(), input)
		if q.Answer.Num > 20 {
			t.Fatalf("K-1 very easy addition too large: %q", q.Text)
		}
	}
}

func TestTemplateGenerator_UnknownOperation(t *testing.T) {
	gen := NewTemplateGenerator(seeded(1))
	if _, err := gen.Generate(context.Background(), testInput("trigonometry")); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestTemplateGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTemplateGenerator(nil).Generate(ctx, testInput(curriculum.OpAddition)); err == nil {
		t.Fatal("expected context error")
	}
}
