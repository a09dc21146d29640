package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []RequestEvent
	err    error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, ev RequestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: okContent,
		Usage:   Usage{InputTokens: 12, OutputTokens: 7},
	})
	p := WithLogging(mock, events, nil)

	ctx := WithPurpose(context.Background(), "question-gen")
	_, err := p.Generate(ctx, questionRequest())
	require.NoError(t, err)

	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, "question-gen", ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.InputTokens)
	assert.Equal(t, 7, ev.OutputTokens)
	assert.Equal(t, string(okContent), ev.ResponseBody)
	assert.Contains(t, ev.RequestBody, "[system]\nYou are a math tutor.")
	assert.Contains(t, ev.RequestBody, "[schema: test-question]")
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	events := &recordingEvents{}
	p := WithLogging(NewMockProvider(MockResponse{Err: errors.New("boom")}), events, nil)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	require.Len(t, events.events, 1)
	assert.False(t, events.events[0].Success)
	assert.Equal(t, "boom", events.events[0].ErrorMessage)
	assert.Equal(t, "unknown", events.events[0].Purpose)
}

func TestLoggingProvider_EventFailureDoesNotFailRequest(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: okContent}), events, nil)

	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
}

func TestLoggingProvider_NilEvents(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: okContent}), nil, nil)
	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(slowProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow", p.ModelID())

	var inner Provider = slowProvider{}
	assert.Equal(t, inner, WithTimeout(inner, 0))
}

func TestPurposeContext(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	assert.Equal(t, "challenge-gen", PurposeFrom(WithPurpose(context.Background(), "challenge-gen")))
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: okContent})

	resp, err := mock.Generate(context.Background(), Request{System: "s"})
	require.NoError(t, err)
	assert.Equal(t, "mock", resp.Model)
	assert.Equal(t, "s", mock.Calls[0].System)

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)

	mock.AddResponse(MockResponse{Content: okContent})
	_, err = mock.Generate(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, 3, mock.CallCount())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"none", Config{Provider: ProviderNone}, ""},
		{"mock", Config{Provider: ProviderMock}, ""},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, ""},
		{"anthropic missing key", Config{Provider: ProviderAnthropic}, "MATHQUEST_ANTHROPIC_API_KEY"},
		{"gemini missing key", Config{Provider: ProviderGemini}, "MATHQUEST_GEMINI_API_KEY"},
		{"openrouter missing key", Config{Provider: ProviderOpenRouter}, "MATHQUEST_OPENROUTER_API_KEY"},
		{"unknown", Config{Provider: "skynet"}, "unknown LLM provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func clearVendorKeys(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "MATHQUEST_LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("MATHQUEST_LLM_PROVIDER", "openai")
	t.Setenv("MATHQUEST_OPENAI_API_KEY", "sk-test")
	t.Setenv("MATHQUEST_OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("MATHQUEST_LLM_TIMEOUT", "5s")

	cfg, err := ConfigFromEnv(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "claude-haiku", cfg.Anthropic.Model, "unset values keep defaults")
}

func TestConfigFromEnv_Discovery(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "ak")
	t.Setenv("OPENROUTER_API_KEY", "ok")

	cfg, err := ConfigFromEnv(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "ak", cfg.Anthropic.APIKey)
	assert.True(t, cfg.Enabled())
}

func TestNewProvider_Disabled(t *testing.T) {
	clearVendorKeys(t)
	_, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewProviderFromEnv(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, &recordingEvents{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.75, c.Cost(1_000_000, 1_000_000), 1e-9)

	assert.NotNil(t, LookupCost("openai/gpt-4o-mini"))
	assert.Nil(t, LookupCost("made-up-model"))
}
