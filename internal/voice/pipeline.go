package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/audio"
	"github.com/antoniostano/compagnon/internal/observability"
)

// Upload is a recorded voice note as received from the client.
type Upload struct {
	Reader   io.Reader
	Filename string
	MIMEType string
}

type TalkResult struct {
	Transcript     string `json:"transcript"`
	ReplyText      string `json:"replyText"`
	AudioMP3Base64 string `json:"audioMp3Base64"`
}

type SpeakResult struct {
	ReplyText      string `json:"replyText"`
	AudioMP3Base64 string `json:"audioMp3Base64"`
}

type PipelineConfig struct {
	UploadDir string
	// KeepUploads leaves recordings on disk after the turn, for debugging.
	KeepUploads bool
}

// Pipeline runs the stateless voice-note and typed-text turns against a Provider.
type Pipeline struct {
	provider Provider
	cfg      PipelineConfig
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

func NewPipeline(provider Provider, cfg PipelineConfig, metrics *observability.Metrics, logger zerolog.Logger) *Pipeline {
	if strings.TrimSpace(cfg.UploadDir) == "" {
		cfg.UploadDir = "tmp_uploads"
	}
	return &Pipeline{
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Talk transcribes a voice note, answers it and voices the answer.
func (p *Pipeline) Talk(ctx context.Context, upload Upload) (TalkResult, error) {
	if upload.Reader == nil {
		return TalkResult{}, ErrMissingAudio
	}
	start := time.Now()
	var result TalkResult
	err := p.withUpload(upload, func(path string) error {
		transcript, err := p.Transcribe(ctx, TranscriptionRequest{FilePath: path, MIMEType: upload.MIMEType})
		if err != nil {
			return err
		}
		prompt := transcript
		if prompt == "" {
			prompt = TalkFallbackPrompt
		}
		reply, err := p.reply(ctx, prompt)
		if err != nil {
			return err
		}
		audioB64, err := p.SynthesizeBase64(ctx, reply)
		if err != nil {
			return err
		}
		result = TalkResult{Transcript: transcript, ReplyText: reply, AudioMP3Base64: audioB64}
		return nil
	})
	if err != nil {
		return TalkResult{}, err
	}
	p.metrics.ObserveStage("talk_total", time.Since(start))
	return result, nil
}

// Speak answers a typed question and voices the answer.
func (p *Pipeline) Speak(ctx context.Context, text string) (SpeakResult, error) {
	start := time.Now()
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		prompt = SpeakFallbackPrompt
	}
	reply, err := p.reply(ctx, prompt)
	if err != nil {
		return SpeakResult{}, err
	}
	audioB64, err := p.SynthesizeBase64(ctx, reply)
	if err != nil {
		return SpeakResult{}, err
	}
	p.metrics.ObserveStage("speak_total", time.Since(start))
	return SpeakResult{ReplyText: reply, AudioMP3Base64: audioB64}, nil
}

// Transcribe runs the STT stage; the transcript is trimmed.
func (p *Pipeline) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	start := time.Now()
	text, err := p.provider.Transcribe(ctx, req)
	p.observe(OpTranscribe, start, err)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Complete runs the chat stage and returns the raw model output.
func (p *Pipeline) Complete(ctx context.Context, req ChatRequest) (string, error) {
	start := time.Now()
	text, err := p.provider.Complete(ctx, req)
	p.observe(OpComplete, start, err)
	return text, err
}

// Synthesize voices text and returns the MP3 bytes.
func (p *Pipeline) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	mp3, err := p.provider.Synthesize(ctx, SpeechRequest{Text: text})
	p.observe(OpSynthesize, start, err)
	return mp3, err
}

// SynthesizeBase64 is Synthesize with the MP3 base64-encoded for JSON replies.
func (p *Pipeline) SynthesizeBase64(ctx context.Context, text string) (string, error) {
	mp3, err := p.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mp3), nil
}

func (p *Pipeline) reply(ctx context.Context, prompt string) (string, error) {
	raw, err := p.Complete(ctx, ChatRequest{Messages: []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: prompt},
	}})
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(raw)
	if reply == "" {
		reply = FallbackReplyText
	}
	return reply, nil
}

func (p *Pipeline) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	p.metrics.ObserveUpstream(op, err)
	if err != nil {
		p.logger.Warn().Err(err).Str("op", op).Dur("elapsed", elapsed).Msg("upstream call failed")
		return
	}
	p.metrics.ObserveStage(op, elapsed)
	p.logger.Debug().Str("op", op).Dur("elapsed", elapsed).Msg("upstream call done")
}

// withUpload writes the recording to a uniquely named file under UploadDir and
// passes its path to fn. The file is released when fn returns, whatever the outcome.
func (p *Pipeline) withUpload(upload Upload, fn func(path string) error) error {
	if err := os.MkdirAll(p.cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("prepare upload dir: %w", err)
	}
	name := uuid.NewString() + "." + audio.ExtensionFor(upload.MIMEType, upload.Filename)
	path := filepath.Join(p.cfg.UploadDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	defer p.release(path)

	_, copyErr := io.Copy(f, upload.Reader)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("store upload: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("store upload: %w", closeErr)
	}
	return fn(path)
}

func (p *Pipeline) release(path string) {
	if p.cfg.KeepUploads {
		p.metrics.ObserveUploadCleanup("kept")
		p.logger.Debug().Str("path", path).Msg("upload kept")
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.metrics.ObserveUploadCleanup("error")
		p.logger.Warn().Err(err).Str("path", path).Msg("upload cleanup failed")
		return
	}
	p.metrics.ObserveUploadCleanup("removed")
}
