package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestCompleteEmptyPrompt(t *testing.T) {
	c := NewClient(Options{}, testLogger())
	if _, err := c.Complete(context.Background(), "   "); err == nil {
		t.Fatal("blank prompt should be rejected")
	}
}

func TestCompleteSuccess(t *testing.T) {
	var received chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Fatalf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"ok":true}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL:     srv.URL,
		APIKey:      "key-1",
		Model:       "test-model",
		Temperature: 0.3,
		Timeout:     time.Second,
	}, testLogger())

	out, err := c.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("successful completion should not error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected content %q", out)
	}

	if received.Model != "test-model" {
		t.Fatalf("model = %q", received.Model)
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != "system" || received.Messages[1].Role != "user" {
		t.Fatalf("message layout wrong: %#v", received.Messages)
	}
	if !strings.Contains(received.Messages[0].Content, "JSON format only") {
		t.Fatalf("system prompt missing: %q", received.Messages[0].Content)
	}
	if received.Temperature != 0.3 {
		t.Fatalf("temperature = %v", received.Temperature)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	_, err := c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("http 429 should error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error should carry the api message, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	if _, err := c.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("empty choices should error")
	}
}

func TestOptionDefaults(t *testing.T) {
	c := NewClient(Options{}, testLogger())
	if c.model() != "gpt-4o-mini" {
		t.Fatalf("default model = %q", c.model())
	}
	if c.temperature() != 0.3 {
		t.Fatalf("default temperature = %v", c.temperature())
	}
	if c.baseURL != "https://api.openai.com/v1" {
		t.Fatalf("default base url = %q", c.baseURL)
	}
}
