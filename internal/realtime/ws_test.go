package realtime

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/audio"
	"github.com/antoniostano/compagnon/internal/protocol"
)

// fakeRealtimeServer greets with session.created and records client messages.
func fakeRealtimeServer(t *testing.T, received chan<- map[string]any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("model"); got != "gpt-realtime" {
			t.Errorf("model = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created","event_id":"e0"}`))
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg map[string]any
			if err := sonic.Unmarshal(data, &msg); err != nil {
				t.Errorf("client sent invalid json: %s", data)
				continue
			}
			received <- msg
			if msg["type"] == string(protocol.TypeSessionUpdate) {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.updated"}`))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSControlChannelDrivesSession(t *testing.T) {
	received := make(chan map[string]any, 16)
	srv := fakeRealtimeServer(t, received)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := DialWS(ctx, WSConfig{URL: wsURL(srv), APIKey: "sk-test", Format: audio.FormatPCMU})
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	ready := make(chan struct{}, 1)
	s := NewSession(nil, ch, SessionOptions{
		Warmup:      true,
		AudioFormat: audio.FormatPCMU,
		OnStatus: func(st string) {
			if st == StatusReady {
				select {
				case ready <- struct{}{}:
				default:
				}
			}
		},
		Logger: zerolog.Nop(),
	})
	go func() { _ = s.Run(ctx) }()

	select {
	case <-ready:
	case <-ctx.Done():
		t.Fatalf("session never became ready")
	}

	next := func() map[string]any {
		select {
		case msg := <-received:
			return msg
		case <-ctx.Done():
			t.Fatalf("timed out waiting for client message")
			return nil
		}
	}
	if msg := next(); msg["type"] != "session.update" {
		t.Fatalf("first message = %v", msg)
	}
	if msg := next(); msg["type"] != "conversation.item.create" {
		t.Fatalf("second message = %v", msg)
	}
	if msg := next(); msg["type"] != "response.create" {
		t.Fatalf("third message = %v", msg)
	}

	if err := ch.AppendAudio(ctx, []byte{0x00, 0x10, 0x00, 0x20}); err != nil {
		t.Fatalf("AppendAudio() error = %v", err)
	}
	msg := next()
	if msg["type"] != "input_audio_buffer.append" {
		t.Fatalf("append message = %v", msg)
	}
	payload, err := base64.StdEncoding.DecodeString(msg["audio"].(string))
	if err != nil || len(payload) != 2 {
		t.Fatalf("append payload = %v, %v; want 2 µ-law bytes", payload, err)
	}
	if err := ch.CommitAudio(ctx); err != nil {
		t.Fatalf("CommitAudio() error = %v", err)
	}
	if msg := next(); msg["type"] != "input_audio_buffer.commit" {
		t.Fatalf("commit message = %v", msg)
	}

	s.Close()
	select {
	case <-s.Done():
	case <-ctx.Done():
		t.Fatalf("session did not close")
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestDialWSFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()
	if _, err := DialWS(context.Background(), WSConfig{URL: wsURL(srv), APIKey: "sk-test"}); err == nil {
		t.Fatalf("DialWS() expected error")
	}
}
