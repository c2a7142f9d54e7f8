package realtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/observability"
	"github.com/antoniostano/compagnon/internal/protocol"
	"github.com/antoniostano/compagnon/internal/reliability"
	"github.com/antoniostano/compagnon/internal/voice"
)

const (
	DefaultModel = "gpt-realtime"
	DefaultVoice = "marin"
	// maxAnswerBytes bounds the provider's SDP answer.
	maxAnswerBytes = 1 << 20
)

// Negotiator relays a WebRTC offer to the provider's realtime calls endpoint and
// returns its answer. It keeps nothing: media flows directly between the browser
// and the provider once negotiated.
type Negotiator struct {
	// BaseURL includes the version prefix, e.g. https://api.openai.com/v1.
	BaseURL    string
	APIKey     string
	Model      string
	Voice      string
	HTTPClient *http.Client
	Metrics    *observability.Metrics
	Logger     zerolog.Logger
}

// SessionConfig is the fixed configuration attached to every offer.
func (n *Negotiator) SessionConfig() protocol.SessionConfig {
	model := strings.TrimSpace(n.Model)
	if model == "" {
		model = DefaultModel
	}
	voiceName := strings.TrimSpace(n.Voice)
	if voiceName == "" {
		voiceName = DefaultVoice
	}
	return protocol.SessionConfig{
		Type:  protocol.SessionKindRealtime,
		Model: model,
		Audio: &protocol.AudioConfig{Output: &protocol.AudioOutput{Voice: voiceName}},
	}
}

// Negotiate posts offerSDP untouched and returns the answer verbatim. A non-2xx
// provider response is returned as *voice.UpstreamError carrying the provider body.
func (n *Negotiator) Negotiate(ctx context.Context, offerSDP string) (string, error) {
	start := time.Now()
	answer, err := n.negotiate(ctx, offerSDP)
	elapsed := time.Since(start)
	if err != nil {
		n.Metrics.ObserveRealtimeOffer("error")
		status, _ := voice.StatusOf(err)
		n.Logger.Warn().Err(err).
			Int("status", status).
			Bool("retryable", reliability.IsRetryableHTTPStatus(status)).
			Dur("elapsed", elapsed).
			Msg("realtime negotiation failed")
		return "", err
	}
	n.Metrics.ObserveRealtimeOffer("ok")
	n.Metrics.ObserveStage("realtime_negotiate", elapsed)
	n.Logger.Debug().Dur("elapsed", elapsed).Int("answer_bytes", len(answer)).Msg("realtime session negotiated")
	return answer, nil
}

func (n *Negotiator) negotiate(ctx context.Context, offerSDP string) (string, error) {
	session, err := protocol.Encode(n.SessionConfig())
	if err != nil {
		return "", fmt.Errorf("encode session config: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("sdp", offerSDP); err != nil {
		return "", fmt.Errorf("build negotiation form: %w", err)
	}
	if err := form.WriteField("session", string(session)); err != nil {
		return "", fmt.Errorf("build negotiation form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build negotiation form: %w", err)
	}

	base := strings.TrimRight(strings.TrimSpace(n.BaseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/realtime/calls", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("realtime calls: %w", err)
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes))
	if err != nil {
		return "", fmt.Errorf("read realtime answer: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(answer))
		if msg == "" {
			msg = resp.Status
		}
		return "", &voice.UpstreamError{Op: "realtime", Status: resp.StatusCode, Message: msg}
	}
	return string(answer), nil
}
