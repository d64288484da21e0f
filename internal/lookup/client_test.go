package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func respond(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
}

func newTestClient(url string) *Client {
	c := NewClient("test-key", "test-model", url, zerolog.Nop())
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestGetDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		var req anthropicRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Model != "test-model" || !strings.Contains(req.Messages[0].Content, `"ephemeral"`) {
			t.Errorf("unexpected request: %+v", req)
		}
		respond(w, "```json\n{\"definition\":\"lasting a very short time\",\"translation\":\"éphémère\",\"partOfSpeech\":\"adjective\"}\n```")
	}))
	defer srv.Close()

	def, err := newTestClient(srv.URL).GetDefinition(context.Background(), "ephemeral", "an ephemeral joy", "fr")
	if err != nil {
		t.Fatalf("GetDefinition failed: %v", err)
	}
	if def.Definition != "lasting a very short time" || def.Translation != "éphémère" || def.PartOfSpeech != "adjective" {
		t.Errorf("GetDefinition = %+v", def)
	}
}

func TestGetDefinitionBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, "I am not JSON")
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).GetDefinition(context.Background(), "x", "", ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestSummarizeRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		respond(w, "  A whale hunt.  ")
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Summarize(context.Background(), "Call me Ishmael.")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "A whale hunt." {
		t.Errorf("Summarize = %q", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text")
	if !IsRetryable(err) {
		t.Fatalf("err = %v, want retryable", err)
	}
	if calls.Load() != MaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls.Load(), MaxRetries+1)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"type":"invalid_request_error"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text")
	if err == nil || IsRetryable(err) {
		t.Fatalf("err = %v, want permanent error", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", "m", "", zerolog.Nop())
	if _, err := c.Summarize(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestBackoff(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		base := min(time.Duration(1<<attempt)*time.Second, 30*time.Second)
		if d < base || d >= base+base/2 {
			t.Errorf("Backoff(%d) = %v, want in [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}

func TestSummaryPromptTruncates(t *testing.T) {
	long := strings.Repeat("ü", maxSummaryRunes+10)
	p := summaryPrompt(long)
	if n := len([]rune(p)); n != maxSummaryRunes+len([]rune("Summarize this passage:\n\n")) {
		t.Errorf("prompt runes = %d", n)
	}
}
