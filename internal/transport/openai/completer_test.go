package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, reply string, check func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42},
		})
	}))
}

func newTestCompleter(url string) *Completer {
	return NewCompleter(&CompletionConfig{
		Config: Config{
			APIKey:   "test-key",
			BaseURL:  url,
			Model:    "gpt-4o",
			Provider: "test",
			Logger:   zap.NewNop(),
		},
		SystemPrompt: "You are an expert Q&A system.",
		Temperature:  0.7,
		MaxTokens:    4096,
	})
}

func TestCompleter_Complete(t *testing.T) {
	server := chatServer(t, "  Mitochondria produce energy.\n", func(req chatRequest) {
		if req.Model != "gpt-4o" || req.MaxTokens != 4096 {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "prompt" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
	})
	defer server.Close()

	ctx, usage := domain.NewContextWithUsage(context.Background())
	res, err := newTestCompleter(server.URL).Complete(ctx, "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if res.Text != "Mitochondria produce energy." {
		t.Errorf("expected trimmed text, got %q", res.Text)
	}
	if res.Tokens != 42 || usage.CompletionTokens != 42 || usage.CompletionCalls != 1 {
		t.Errorf("usage not recorded: res=%d usage=%+v", res.Tokens, usage)
	}
}

func TestCompleter_WithModelAndNoSystemPrompt(t *testing.T) {
	server := chatServer(t, "Yes", func(req chatRequest) {
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected overridden model, got %s", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("expected a single user message, got %+v", req.Messages)
		}
	})
	defer server.Close()

	base := newTestCompleter(server.URL)
	c := base.WithModel("gpt-4o-mini").WithSystemPrompt("")
	if c.Model() != "gpt-4o-mini" || base.Model() != "gpt-4o" {
		t.Fatal("WithModel must not mutate the receiver")
	}
	if _, err := c.Complete(context.Background(), "classify"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream overloaded", "type": "server_error"},
		})
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Fatal("500 must not be reported as rate limited")
	}
}

func TestCompleter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}
