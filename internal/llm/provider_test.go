package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"n":1}`), Usage: Usage{InputTokens: 3}},
		MockResponse{Content: json.RawMessage(`{"n":2}`)},
	)

	for i, want := range []string{`{"n":1}`, `{"n":2}`} {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if string(resp.Content) != want {
			t.Fatalf("call %d: content = %s, want %s", i, resp.Content, want)
		}
	}

	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("empty queue: expected ErrProviderUnavailable, got %T", err)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("calls = %d, want 3", mock.CallCount())
	}
}

func TestMockProvider_DelayHonorsContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := mock.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("delay was not interrupted by the context")
	}
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"problem_text":"?"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: testProblemSchema})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("PurposeFrom(empty) = %q, want unknown", p)
	}
	ctx = WithPurpose(ctx, PurposePreview)
	if p := PurposeFrom(ctx); p != PurposePreview {
		t.Fatalf("PurposeFrom = %q, want %q", p, PurposePreview)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"mock", Config{Provider: "mock"}, false},
		{"unknown", Config{Provider: "llama.cpp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MATHDUEL_LLM_PROVIDER", "openai")
	t.Setenv("MATHDUEL_OPENAI_API_KEY", "sk-env")
	t.Setenv("MATHDUEL_OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("MATHDUEL_LLM_BREAKER", "off")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected config: %+v", cfg.OpenAI)
	}
	if cfg.Breaker.Enabled {
		t.Fatal("breaker should be disabled")
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Fatalf("retry attempts = %d, want default 2", cfg.Retry.MaxAttempts)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("claude-haiku-4-5-20251001")
	if c == nil {
		t.Fatal("expected pricing for claude haiku")
	}
	if got := c.Cost(1_000_000, 1_000_000); got != 6 {
		t.Fatalf("Cost = %v, want 6", got)
	}
	if LookupCost("google/gemini-2.0-flash-001") == nil {
		t.Fatal("expected vendor-prefixed lookup to resolve")
	}
	if LookupCost("unknown-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
