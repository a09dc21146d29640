package problemgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/llm"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &LLMGenerator{provider: provider, config: cfg}
}

// questionOutput is the raw LLM response before validation.
type questionOutput struct {
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
	Hint         string `json:"hint"`
	Explanation  string `json:"explanation"`
}

// Generate produces a single question. Retryable validation failures are
// regenerated up to Config.MaxAttempts times.
func (g *LLMGenerator) Generate(ctx context.Context, input Input) (*Question, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	var lastErr error
	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		q, err := g.generateOnce(ctx, input)
		if err == nil {
			return q, nil
		}
		lastErr = err

		var verr *ValidationError
		if !errors.As(err, &verr) || !verr.Retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *LLMGenerator) generateOnce(ctx context.Context, input Input) (*Question, error) {
	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, g.config)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	q := &Question{
		ID:          uuid.NewString(),
		Text:        raw.QuestionText,
		Operation:   input.Operation,
		Hint:        raw.Hint,
		Explanation: raw.Explanation,
		Source:      SourceLLM,
	}
	if v, ok := answer.ParseCanonical(raw.Answer, input.Operation); ok {
		q.Answer = &v
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return nil, verr
		}
	}
	return q, nil
}
