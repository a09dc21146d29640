package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RequestEvent is the audit record written for every provider call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
	CreatedAt    time.Time
}

// EventLogger persists RequestEvents. internal/store implements it.
type EventLogger interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

// LoggingProvider records each call through an EventLogger and emits a
// structured log line.
type LoggingProvider struct {
	inner  Provider
	events EventLogger
	logger *slog.Logger
}

// WithLogging wraps p. A nil events logger only writes slog lines.
func WithLogging(p Provider, events EventLogger, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, events: events, logger: logger}
}

// Generate calls the inner provider and records the exchange.
func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
		CreatedAt:   start,
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	attrs := []any{
		"purpose", ev.Purpose,
		"model", ev.Model,
		"latency_ms", ev.LatencyMs,
		"input_tokens", ev.InputTokens,
		"output_tokens", ev.OutputTokens,
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(attrs, "error", err)...)
	} else {
		l.logger.Debug("llm request", attrs...)
	}

	if l.events != nil {
		// The caller's request must not fail because auditing did.
		if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
			l.logger.Warn("failed to record llm request event", "error", logErr)
		}
	}

	return resp, err
}

// ModelID returns the inner provider's model.
func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest renders req as readable text for the audit log.
func serializeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
