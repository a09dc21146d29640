package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-question",
		Description: "A test question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question_text": map[string]any{"type": "string"},
				"answer":        map[string]any{"type": "string"},
				"hint":          map[string]any{"type": "string"},
				"explanation":   map[string]any{"type": "string"},
				"tier":          map[string]any{"type": "string", "enum": []any{"easy", "hard"}},
			},
			"required": []any{"question_text", "answer"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		raw     string
		wantErr bool
	}{
		{"valid", testSchema(), questionContent, false},
		{"optional fields omitted", testSchema(), `{"question_text":"q","answer":"1"}`, false},
		{"missing required", testSchema(), `{"question_text":"q"}`, true},
		{"wrong type", testSchema(), `{"question_text":"q","answer":5}`, true},
		{"bad enum", testSchema(), `{"question_text":"q","answer":"1","tier":"medium"}`, true},
		{"malformed", testSchema(), `{"question_text":`, true},
		{"empty", testSchema(), ``, true},
		{"nil schema", nil, `anything`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Errorf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_SchemaCached(t *testing.T) {
	s := testSchema()
	s.Name = "cache-probe"
	if err := validateResponse(s, json.RawMessage(questionContent)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := compiledSchemas.Load("cache-probe"); !ok {
		t.Fatal("expected compiled schema to be cached")
	}
}
