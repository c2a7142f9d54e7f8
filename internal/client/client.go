package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/dialogue"
	"github.com/antoniostano/compagnon/internal/memory"
	"github.com/antoniostano/compagnon/internal/reliability"
	"github.com/antoniostano/compagnon/internal/voice"
)

// APIError is a non-2xx answer from the compagnon server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("compagnon status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the same request may succeed later.
func (e *APIError) Retryable() bool {
	return reliability.IsRetryableHTTPStatus(e.Status)
}

// Client talks to a compagnon server the way the browser page does, keeping the
// conversation memory on the caller's side.
type Client struct {
	baseURL string
	http    *http.Client
	memory  *memory.Buffer
	logger  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "client").Logger() }
}

func New(baseURL string, mem *memory.Buffer, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		memory:  mem,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Talk uploads the recording at path as a voice note.
func (c *Client) Talk(ctx context.Context, path string) (voice.TalkResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return voice.TalkResult{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", contentTypeFor(path))
	part, err := form.CreatePart(header)
	if err != nil {
		return voice.TalkResult{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return voice.TalkResult{}, fmt.Errorf("build upload: %w", err)
	}
	if err := form.Close(); err != nil {
		return voice.TalkResult{}, fmt.Errorf("build upload: %w", err)
	}

	var out voice.TalkResult
	err = c.do(ctx, http.MethodPost, "/api/talk", form.FormDataContentType(), &body, &out)
	return out, err
}

// Speak sends a typed question.
func (c *Client) Speak(ctx context.Context, text string) (voice.SpeakResult, error) {
	var out voice.SpeakResult
	err := c.postJSON(ctx, "/api/speak", map[string]string{"text": text}, &out)
	return out, err
}

// AskStructured sends text with the remembered conversation. Both sides of the
// exchange are remembered only when the server answers.
func (c *Client) AskStructured(ctx context.Context, text string) (dialogue.Result, error) {
	payload := struct {
		Text   string        `json:"text"`
		Memory memory.Memory `json:"memory"`
	}{Text: text, Memory: c.memory.Load(ctx)}

	var out dialogue.Result
	if err := c.postJSON(ctx, "/api/speak_structured", payload, &out); err != nil {
		return dialogue.Result{}, err
	}
	c.memory.Append(ctx, memory.RoleUser, text)
	c.memory.Append(ctx, memory.RoleAssistant, out.ReplyText)
	return out, nil
}

// Reset forgets the conversation. The server keeps nothing, so this is local.
func (c *Client) Reset(ctx context.Context) {
	c.memory.Clear(ctx)
}

// Memory returns the remembered conversation.
func (c *Client) Memory(ctx context.Context) memory.Memory {
	return c.memory.Load(ctx)
}

// NegotiateRealtime relays a WebRTC offer through the server and returns the answer.
func (c *Client) NegotiateRealtime(ctx context.Context, offerSDP string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/realtime/session", strings.NewReader(offerSDP))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/sdp")
	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send offer: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", decodeAPIError(res.StatusCode, body)
	}
	return string(body), nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := sonic.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug().
		Str("path", path).
		Int("status", res.StatusCode).
		Str("request_id", res.Header.Get("X-Request-ID")).
		Dur("elapsed", time.Since(start)).
		Msg("api call")
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeAPIError(res.StatusCode, raw)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := sonic.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "audio/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
