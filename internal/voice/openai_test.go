package voice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newFakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("model"); got != "gpt-4o-mini-transcribe" {
			t.Errorf("model = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"  Bonjour, qui es-tu ?  "}`)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model          string `json:"model"`
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode chat body: %v", err)
		}
		content := "Je suis le Compagnon."
		if body.ResponseFormat != nil && body.ResponseFormat.Type == "json_object" {
			content = `{"intent":"greet","emotion":"happy","confidence":0.8,"replyText":"Bonjour !"}`
		}
		if len(body.Messages) > 0 && body.Messages[len(body.Messages)-1].Content == "fail" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	})
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["voice"] != "alloy" || body["model"] != "gpt-4o-mini-tts" {
			t.Errorf("speech body = %v", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = io.WriteString(w, "ID3-fake-mp3")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAIProvider(srv *httptest.Server) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1",
		HTTPClient: srv.Client(),
	})
}

func TestOpenAIProviderStages(t *testing.T) {
	p := newTestOpenAIProvider(newFakeOpenAI(t))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "note.webm")
	if err := os.WriteFile(path, []byte("fake-audio"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	transcript, err := p.Transcribe(ctx, TranscriptionRequest{FilePath: path, MIMEType: "audio/webm"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if transcript != "Bonjour, qui es-tu ?" {
		t.Fatalf("transcript = %q", transcript)
	}

	reply, err := p.Complete(ctx, ChatRequest{Messages: []Message{{Role: RoleUser, Content: "salut"}}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Je suis le Compagnon." {
		t.Fatalf("reply = %q", reply)
	}

	structured, err := p.Complete(ctx, ChatRequest{Messages: []Message{{Role: RoleUser, Content: "salut"}}, JSON: true})
	if err != nil {
		t.Fatalf("Complete(JSON) error = %v", err)
	}
	if !strings.Contains(structured, `"intent":"greet"`) {
		t.Fatalf("structured = %q", structured)
	}

	mp3, err := p.Synthesize(ctx, SpeechRequest{Text: "Bonjour"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(mp3) != "ID3-fake-mp3" {
		t.Fatalf("audio = %q", mp3)
	}
}

func TestOpenAIProviderSurfacesProviderStatus(t *testing.T) {
	p := newTestOpenAIProvider(newFakeOpenAI(t))

	_, err := p.Complete(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "fail"}}})
	if err == nil {
		t.Fatalf("Complete() expected error")
	}
	status, msg := StatusOf(err)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if msg != "Incorrect API key provided" {
		t.Fatalf("message = %q", msg)
	}
}
