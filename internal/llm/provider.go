package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Provider generates structured output from a language model.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the content has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model this provider talks to.
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema requests structured JSON output. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document.
type Schema struct {
	// Name is kebab-case, e.g. "math-question". OpenAI uses it as the
	// response format name.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a provider's structured answer.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage counts the tokens of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// timeoutProvider bounds every call with a deadline.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each Generate call is cancelled after d. A
// non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
