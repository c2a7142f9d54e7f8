package dialogue

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/memory"
	"github.com/antoniostano/compagnon/internal/observability"
	"github.com/antoniostano/compagnon/internal/policy"
	"github.com/antoniostano/compagnon/internal/voice"
)

// Result is the gated structured reply plus its synthesized audio.
type Result struct {
	Intent         string  `json:"intent"`
	Emotion        string  `json:"emotion"`
	Confidence     float64 `json:"confidence"`
	ReplyText      string  `json:"replyText"`
	AudioMP3Base64 string  `json:"audioMp3Base64"`
}

// Engine is the subset of the turn pipeline a structured turn needs.
type Engine interface {
	Complete(ctx context.Context, req voice.ChatRequest) (string, error)
	SynthesizeBase64(ctx context.Context, text string) (string, error)
}

type Service struct {
	engine  Engine
	metrics *observability.Metrics
	logger  zerolog.Logger
}

func NewService(engine Engine, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		engine:  engine,
		metrics: metrics,
		logger:  logger.With().Str("component", "dialogue").Logger(),
	}
}

// BuildMessages assembles the prompt: persona, JSON instructions, the optional
// summary, the remembered user/assistant turns (each capped at 2000 characters)
// and the current question.
func BuildMessages(text string, mem memory.Memory) []voice.Message {
	msgs := make([]voice.Message, 0, len(mem.Turns)+4)
	msgs = append(msgs,
		voice.Message{Role: voice.RoleSystem, Content: voice.SystemPrompt},
		voice.Message{Role: voice.RoleSystem, Content: StructuredInstructions},
	)
	if summary := strings.TrimSpace(mem.Summary); summary != "" {
		msgs = append(msgs, voice.Message{Role: voice.RoleSystem, Content: summaryPrefix + summary})
	}
	for _, t := range mem.Turns {
		if t.Role != memory.RoleUser && t.Role != memory.RoleAssistant {
			continue
		}
		msgs = append(msgs, voice.Message{Role: t.Role, Content: truncateRunes(t.Content, maxTurnRunes)})
	}
	question := strings.TrimSpace(text)
	if question == "" {
		question = DefaultQuestion
	}
	return append(msgs, voice.Message{Role: voice.RoleUser, Content: question})
}

// Respond runs one structured turn. A reply the model failed to format is
// replaced by the fallback reply; it is not an error.
func (s *Service) Respond(ctx context.Context, text string, mem memory.Memory) (Result, error) {
	start := time.Now()
	raw, err := s.engine.Complete(ctx, voice.ChatRequest{Messages: BuildMessages(text, mem), JSON: true})
	if err != nil {
		return Result{}, err
	}

	reply, ok := policy.ParseReply(raw)
	if !ok {
		s.logger.Warn().Str("raw", policy.RedactForLog(raw, 200)).Msg("structured reply not parseable, using fallback")
		s.metrics.ObserveIndicator("structured_parse_fallback")
		reply = policy.FallbackReply()
	}

	reply, coercions := policy.Gate(reply)
	for _, c := range coercions {
		s.metrics.ObserveCoercion(c.Field)
		s.logger.Info().
			Str("field", c.Field).
			Str("from", policy.RedactForLog(c.From, 80)).
			Str("to", c.To).
			Msg("gate coerced structured reply")
	}
	s.metrics.ObserveIntent(reply.Intent)

	audioB64, err := s.engine.SynthesizeBase64(ctx, policy.SpokenText(reply))
	if err != nil {
		return Result{}, err
	}

	s.metrics.ObserveStage("structured_total", time.Since(start))
	s.logger.Debug().
		Str("question", policy.RedactForLog(text, 120)).
		Str("intent", reply.Intent).
		Str("emotion", reply.Emotion).
		Float64("confidence", reply.Confidence).
		Msg("structured turn")

	return Result{
		Intent:         reply.Intent,
		Emotion:        reply.Emotion,
		Confidence:     reply.Confidence,
		ReplyText:      reply.ReplyText,
		AudioMP3Base64: audioB64,
	}, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
