package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

var okContent = json.RawMessage(`{"ok":true}`)

func unavailable() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{{Content: okContent}}, false, 1},
		{"transient then success", []MockResponse{unavailable(), {Content: okContent}}, false, 2},
		{"all attempts fail", []MockResponse{unavailable(), unavailable(), unavailable(), {Content: okContent}}, true, 3},
		{"max tokens not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, {Content: okContent}}, true, 1},
		{"invalid response retried once", []MockResponse{
			{Err: &ErrInvalidResponse{Err: errors.New("bad")}},
			{Err: &ErrInvalidResponse{Err: errors.New("bad")}},
			{Content: okContent},
		}, true, 2},
		{"rate limit honours retry-after", []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}},
			{Content: okContent},
		}, false, 2},
		{"canceled is final", []MockResponse{{Err: context.Canceled}, {Content: okContent}}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(), nil)

			resp, err := p.Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(resp.Content) != string(okContent) {
				t.Errorf("content = %s", resp.Content)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	mock := NewMockProvider(unavailable(), unavailable(), MockResponse{Content: okContent})
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: time.Second, MaxWait: 2 * time.Second, Multiplier: 10}}
	for attempt := 0; attempt < 4; attempt++ {
		if d := r.backoff(attempt, errors.New("x")); d > 2400*time.Millisecond {
			t.Errorf("attempt %d: backoff %s exceeds cap plus jitter", attempt, d)
		}
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	if got := WithRetry(NewMockProvider(), fastRetry(), nil).ModelID(); got != "mock" {
		t.Fatalf("ModelID = %q", got)
	}
}
