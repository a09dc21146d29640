package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient failures with capped exponential backoff
// and ±20% jitter. Invalid responses are retried once.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *slog.Logger
}

// WithRetry wraps p with retry logic.
func WithRetry(p Provider, cfg RetryConfig, logger *slog.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

// Generate retries transient failures with exponential backoff.
func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	usedInvalidRetry := false

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		switch classify(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if usedInvalidRetry {
				return nil, err
			}
			usedInvalidRetry = true
		}

		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.logger.Debug("retrying llm request",
			"model", r.inner.ModelID(), "attempt", attempt+1, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// ModelID returns the inner provider's model.
func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// backoff returns the wait before the next attempt. A RetryAfter hint from a
// rate limit wins over the computed value.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	mult := r.config.Multiplier
	if mult <= 0 {
		mult = 2
	}
	wait := math.Min(
		float64(r.config.InitialWait)*math.Pow(mult, float64(attempt)),
		float64(r.config.MaxWait),
	)
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
