package problemgen

import (
	"context"
	"errors"
	"log/slog"
)

// Generator produces math questions.
type Generator interface {
	// Generate produces a single question for the given input. The returned
	// question may have a nil Answer.
	Generate(ctx context.Context, input Input) (*Question, error)
}

// FallbackGenerator tries Primary and switches to Secondary when Primary
// fails, so a missing or failing LLM never blocks a session.
type FallbackGenerator struct {
	Primary   Generator
	Secondary Generator
	Logger    *slog.Logger
}

// Generate implements Generator.
func (g *FallbackGenerator) Generate(ctx context.Context, input Input) (*Question, error) {
	if g.Primary != nil {
		q, err := g.Primary.Generate(ctx, input)
		if err == nil {
			return q, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		logger := g.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("primary question generator failed, using fallback",
			"operation", input.Operation, "error", err)
	}
	if g.Secondary == nil {
		return nil, errors.New("no question generator available")
	}
	return g.Secondary.Generate(ctx, input)
}
