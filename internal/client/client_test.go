package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/memory"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *memory.Buffer) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	buf := memory.NewBuffer(memory.NewInMemoryStorage(), zerolog.Nop())
	return New(ts.URL+"/", buf, WithHTTPClient(ts.Client())), buf
}

func TestAskStructuredSendsMemoryAndRemembersExchange(t *testing.T) {
	var seen []memory.Memory
	c, buf := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/speak_structured" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Text   string        `json:"text"`
			Memory memory.Memory `json:"memory"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		seen = append(seen, req.Memory)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"intent":"explain_project","emotion":"happy","confidence":0.9,"replyText":"Réponse","audioMp3Base64":"QUJD"}`)
	})
	ctx := context.Background()

	if _, err := c.AskStructured(ctx, "Première"); err != nil {
		t.Fatalf("AskStructured() error = %v", err)
	}
	res, err := c.AskStructured(ctx, "Deuxième")
	if err != nil {
		t.Fatalf("AskStructured() error = %v", err)
	}
	if res.Intent != "explain_project" || res.ReplyText != "Réponse" {
		t.Fatalf("result = %+v", res)
	}

	if len(seen[0].Turns) != 0 {
		t.Fatalf("first request turns = %d, want 0", len(seen[0].Turns))
	}
	if len(seen[1].Turns) != 2 || seen[1].Turns[0].Content != "Première" || seen[1].Turns[1].Role != memory.RoleAssistant {
		t.Fatalf("second request memory = %+v", seen[1])
	}
	if got := len(buf.Load(ctx).Turns); got != 4 {
		t.Fatalf("remembered turns = %d, want 4", got)
	}
}

func TestAskStructuredFailureLeavesMemoryUntouched(t *testing.T) {
	c, buf := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"upstream down"}`)
	})
	ctx := context.Background()

	_, err := c.AskStructured(ctx, "Bonjour")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("AskStructured() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if !apiErr.Retryable() {
		t.Fatalf("502 should be retryable")
	}
	if got := len(buf.Load(ctx).Turns); got != 0 {
		t.Fatalf("remembered turns = %d, want 0", got)
	}
}

func TestResetClearsMemory(t *testing.T) {
	c, buf := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	ctx := context.Background()
	buf.Append(ctx, memory.RoleUser, "hello")

	c.Reset(ctx)
	if got := len(c.Memory(ctx).Turns); got != 0 {
		t.Fatalf("turns after reset = %d, want 0", got)
	}
}

func TestTalkUploadsRecording(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			http.Error(w, `{"error":"No audio file provided."}`, http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "note.webm" || string(data) != "opus-bytes" {
			t.Errorf("upload = %q (%q)", header.Filename, data)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/webm" {
			t.Errorf("part Content-Type = %q, want audio/webm", ct)
		}
		_, _ = io.WriteString(w, `{"transcript":"bonjour","replyText":"Salut","audioMp3Base64":"QUJD"}`)
	})

	path := filepath.Join(t.TempDir(), "note.webm")
	if err := os.WriteFile(path, []byte("opus-bytes"), 0o600); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	res, err := c.Talk(context.Background(), path)
	if err != nil {
		t.Fatalf("Talk() error = %v", err)
	}
	if res.Transcript != "bonjour" || res.ReplyText != "Salut" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSpeakDecodesNonJSONError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusUnauthorized)
	})

	_, err := c.Speak(context.Background(), "Bonjour")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Speak() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "bad gateway" {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if apiErr.Retryable() {
		t.Fatalf("401 should not be retryable")
	}
}

func TestNegotiateRealtime(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/sdp" {
			t.Errorf("Content-Type = %q, want application/sdp", ct)
		}
		offer, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/sdp")
		_, _ = io.WriteString(w, "answer-for:"+string(offer))
	})

	answer, err := c.NegotiateRealtime(context.Background(), "v=0")
	if err != nil {
		t.Fatalf("NegotiateRealtime() error = %v", err)
	}
	if answer != "answer-for:v=0" {
		t.Fatalf("answer = %q, want %q", answer, "answer-for:v=0")
	}
}
