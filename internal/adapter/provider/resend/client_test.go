package resend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessage() Message {
	return Message{
		From:    "Storyloom <no-reply@storyloom.dev>",
		To:      []string{"reader@example.com"},
		Subject: "[Storyloom] New mention",
		HTML:    "<p>You were mentioned.</p>",
		Headers: map[string]string{"List-Unsubscribe": "<https://storyloom.dev/unsubscribe?token=abc>"},
	}
}

func TestClient_Send_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer re_test" {
			t.Errorf("Authorization = %q, want bearer key", got)
		}

		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if msg.Subject != "[Storyloom] New mention" {
			t.Errorf("Subject = %q", msg.Subject)
		}
		if msg.Headers["List-Unsubscribe"] == "" {
			t.Error("List-Unsubscribe header not forwarded")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "re_test", newTestLogger())
	id, err := c.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "msg_123" {
		t.Errorf("message id = %q, want msg_123", id)
	}
}

func TestClient_Send_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "re_test", newTestLogger())
	_, err := c.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid to address") {
		t.Errorf("error should carry API message, got: %v", err)
	}
}

func TestClient_Send_RetriesOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"msg_retry"}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "re_test", newTestLogger())
	id, err := c.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if id != "msg_retry" {
		t.Errorf("message id = %q, want msg_retry", id)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_Send_MissingID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "re_test", newTestLogger())
	_, err := c.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error for missing id")
	}
}
