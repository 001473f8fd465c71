package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCompleteSuccess verifies a well-formed chat-completions response
// yields the message content.
func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello plan"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL, APIKey: "test-key", Model: "m", TimeoutMs: 5000}, testLogger())
	text, err := c.Complete(context.Background(), "prompt", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello plan" {
		t.Errorf("text = %q", text)
	}
}

// TestCompleteTimeout verifies a slow endpoint maps to ErrTimeout
// rather than a raw transport error.
func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL, Model: "m", TimeoutMs: 20}, testLogger())
	_, err := c.Complete(context.Background(), "prompt", Options{})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

// TestCompleteTransportError verifies non-200 responses map to
// ErrTransport.
func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL, Model: "m", TimeoutMs: 5000}, testLogger())
	_, err := c.Complete(context.Background(), "prompt", Options{})
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

// TestCompleteOptionsOverride verifies per-call options take precedence
// over configured defaults.
func TestCompleteOptionsOverride(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL, Model: "m", Temperature: 0.2, MaxTokens: 100, TimeoutMs: 5000}, testLogger())
	if _, err := c.Complete(context.Background(), "p", Options{Temperature: 0.9, MaxTokens: 42}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotBody, `"temperature":0.9`) || !strings.Contains(gotBody, `"max_tokens":42`) {
		t.Errorf("body missing overrides: %s", gotBody)
	}
}
