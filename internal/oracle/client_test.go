// v1
// internal/oracle/client_test.go
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecocampus/analyzer/internal/breaker"
	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/logging"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, logging.Discard())
}

func TestInvokeSuccess(t *testing.T) {
	var gotMessages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotMessages = len(req.Messages)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "the reply"}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	prior := []campus.Turn{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}}
	text, err := c.Invoke(context.Background(), "new prompt", prior)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if text != "the reply" {
		t.Fatalf("reply = %q", text)
	}
	if gotMessages != 3 {
		t.Fatalf("messages sent = %d, want prior conversation plus prompt", gotMessages)
	}
}

func TestInvokeUnconfigured(t *testing.T) {
	c := NewClient(Options{}, logging.Discard())
	_, err := c.Invoke(context.Background(), "prompt", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestInvokeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Invoke(context.Background(), "prompt", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestInvokeMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Invoke(context.Background(), "prompt", nil)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "k",
		Model:   "m",
		Breaker: breaker.Config{MaxFailures: 2, ResetTimeout: time.Hour},
	}, logging.Discard())

	for i := 0; i < 2; i++ {
		if _, err := c.Invoke(context.Background(), "prompt", nil); err == nil {
			t.Fatal("expected failure")
		}
	}

	// third call fast-fails without reaching the server, surfaced as unavailable
	_, err := c.Invoke(context.Background(), "prompt", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from open breaker, got %v", err)
	}
}
