package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestCompleter(t *testing.T, handler http.HandlerFunc) *OpenRouterCompleter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenRouterCompleter(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/api/v1/",
		Model:   "google/gemma-7b-it:free",
		Referer: "https://example.test/bot",
		Title:   "FinCopilot",
	})
	if err != nil {
		t.Fatalf("NewOpenRouterCompleter: %v", err)
	}
	return c
}

func TestOpenRouterCompleter_Complete(t *testing.T) {
	var gotReq struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.test/bot" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "FinCopilot" {
			t.Errorf("X-Title = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","object":"chat.completion","model":"google/gemma-7b-it:free",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"type\":\"расход\"}"},"finish_reason":"stop"}]}`))
	})

	out, err := c.Complete(context.Background(), "parse this", 0.1, 500)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"type":"расход"}` {
		t.Errorf("completion = %q", out)
	}
	if gotReq.Model != "google/gemma-7b-it:free" || gotReq.MaxTokens != 500 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" || gotReq.Messages[0].Content != "parse this" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOpenRouterCompleter_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "invalid key", status: http.StatusUnauthorized, want: ErrInvalidKey},
		{name: "no credit", status: http.StatusPaymentRequired, want: ErrInsufficientFunds},
		{name: "throttled", status: http.StatusTooManyRequests, want: ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"error"}}`))
			})

			_, err := c.Complete(context.Background(), "x", 0.1, 10)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Errorf("expected APIError with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestOpenRouterCompleter_EmptyChoices(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-2","object":"chat.completion","choices":[]}`))
	})

	_, err := c.Complete(context.Background(), "x", 0.1, 10)
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestNewOpenRouterCompleter_Validation(t *testing.T) {
	if _, err := NewOpenRouterCompleter(OpenRouterConfig{Model: "m"}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("missing key: error = %v", err)
	}
	if _, err := NewOpenRouterCompleter(OpenRouterConfig{APIKey: "k"}); err == nil {
		t.Error("missing model: expected error")
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{Provider: "gemini", StatusCode: http.StatusInternalServerError, Message: "oops"}
	for _, sentinel := range []error{ErrInvalidKey, ErrInsufficientFunds, ErrRateLimited} {
		if errors.Is(err, sentinel) {
			t.Errorf("500 should not match %v", sentinel)
		}
	}
	if err.Error() != "gemini: status 500: oops" {
		t.Errorf("Error() = %q", err.Error())
	}
}
