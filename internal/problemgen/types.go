package problemgen

import (
	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/progress"
)

// Question is a generated question. It is immutable once issued to a session.
type Question struct {
	// ID is unique per generated question.
	ID string `json:"id"`

	// Text is the prompt shown to the learner, e.g. "What is 345 + 278?".
	Text string `json:"text"`

	// Operation drives answer extraction and correctness comparison.
	Operation curriculum.Operation `json:"operation"`

	// Answer is nil when the source did not supply one. The session fills it
	// in by extraction before the question is shown.
	Answer *answer.Value `json:"answer,omitempty"`

	// Hint is an optional short hint. Empty if none was generated.
	Hint string `json:"hint,omitempty"`

	// Explanation is a brief worked solution shown after answering.
	Explanation string `json:"explanation,omitempty"`

	// Source names the generator that produced the question.
	Source Source `json:"source"`
}

// WithAnswer returns a copy of q carrying v as its answer.
func (q Question) WithAnswer(v answer.Value) *Question {
	q.Answer = &v
	return &q
}

// Source identifies a question generator.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceTemplate Source = "template"
)

// Input holds everything a generator may use to produce a question.
type Input struct {
	UserID string

	Grade curriculum.Grade

	// Operation is the operation the question must exercise.
	Operation curriculum.Operation

	// Modules are the module IDs the learner selected.
	Modules []string

	// Tier is the learner's current difficulty tier.
	Tier difficulty.Tier

	// History is the learner's recent answer history, oldest first.
	History []progress.Entry

	// PriorQuestions holds the text of questions already asked in this
	// session. Used for deduplication in the prompt.
	PriorQuestions []string
}
