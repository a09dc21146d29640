package problemgen

import "github.com/abhisek/mathquest/internal/llm"

// QuestionSchema defines the JSON schema for LLM question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "math-question",
	Description: "A single math practice question for a child, with answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question prompt shown to the learner",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "The correct answer: a number (\"42\", \"0.75\", \"3/4\") or, for pattern questions, the next item. Empty string if unsure.",
			},
			"hint": map[string]any{
				"type":        "string",
				"description": "A short scaffolding hint. May be empty.",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Step-by-step worked solution, age-appropriate for a child",
			},
		},
		"required":             []any{"question_text", "answer", "hint", "explanation"},
		"additionalProperties": false,
	},
}
