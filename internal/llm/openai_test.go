package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	return p
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 90, "completion_tokens": 30, "total_tokens": 120},
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var gotSystem bool
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotSystem = len(body.Messages) == 2 && body.Messages[0].Role == "system" &&
			body.ResponseFormat != nil && body.ResponseFormat.Type == "json_schema"

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"problem_text":"Solve x + 4 = 9","correct_answer":"5"}`, "stop"))
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "Write one problem.",
		Messages:  []Message{{Role: RoleUser, Content: "equations"}},
		Schema:    testProblemSchema,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotSystem {
		t.Fatal("expected system message and json_schema response format in request")
	}
	if resp.Usage.TotalTokens != 120 {
		t.Fatalf("total tokens = %d, want 120", resp.Usage.TotalTokens)
	}
	if !strings.Contains(string(resp.Content), "x + 4 = 9") {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"problem_text":"Sol`, "length"))
	})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, MaxTokens: 4})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "server_error", "message": "nope"},
			})
		})
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, MaxTokens: 10})

		var rl *ErrRateLimit
		var unavail *ErrProviderUnavailable
		switch status {
		case http.StatusTooManyRequests:
			if !errors.As(err, &rl) {
				t.Fatalf("429: expected ErrRateLimit, got %T (%v)", err, err)
			}
		default:
			if !errors.As(err, &unavail) {
				t.Fatalf("%d: expected ErrProviderUnavailable, got %T (%v)", status, err, err)
			}
		}
	}
}

func TestOpenRouterProvider(t *testing.T) {
	t.Run("model used as given", func(t *testing.T) {
		p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "gpt-4o"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "gpt-4o" {
			t.Fatalf("model = %q, want gpt-4o", p.ModelID())
		}
	})

	t.Run("requires key", func(t *testing.T) {
		if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.0-flash-001"}); err == nil {
			t.Fatal("expected error for empty API key")
		}
	})

	t.Run("talks to configured gateway", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chatCompletion(`{}`, "stop"))
		}))
		defer server.Close()

		p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "meta-llama/llama-3-8b", BaseURL: server.URL + "/api/v1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/api/v1/chat/completions" {
			t.Fatalf("path = %q", path)
		}
	})
}
