package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/config"
	"github.com/antoniostano/compagnon/internal/dialogue"
	"github.com/antoniostano/compagnon/internal/memory"
	"github.com/antoniostano/compagnon/internal/observability"
	"github.com/antoniostano/compagnon/internal/protocol"
	"github.com/antoniostano/compagnon/internal/voice"
)

// Turns runs the unstructured voice-note and typed-text turns.
type Turns interface {
	Talk(ctx context.Context, upload voice.Upload) (voice.TalkResult, error)
	Speak(ctx context.Context, text string) (voice.SpeakResult, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Structured answers a question with a gated, structured reply.
type Structured interface {
	Respond(ctx context.Context, text string, mem memory.Memory) (dialogue.Result, error)
}

// Negotiator relays realtime session offers.
type Negotiator interface {
	Negotiate(ctx context.Context, offerSDP string) (string, error)
}

type Server struct {
	cfg        config.Config
	turns      Turns
	structured Structured
	negotiator Negotiator
	metrics    *observability.Metrics
	logger     zerolog.Logger
	static     http.Handler
}

func New(cfg config.Config, turns Turns, structured Structured, negotiator Negotiator, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	if cfg.MaxJSONBytes <= 0 {
		cfg.MaxJSONBytes = 1 << 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	return &Server{
		cfg:        cfg,
		turns:      turns,
		structured: structured,
		negotiator: negotiator,
		metrics:    metrics,
		logger:     logger.With().Str("component", "httpapi").Logger(),
		static:     newStaticHandler(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, accessLog(s.logger), recoverer(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			http.NotFound(w, r)
			return
		}
		s.metrics.Handler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Route("/api", func(r chi.Router) {
		r.Post("/talk", s.handleTalk)
		r.Post("/speak", s.handleSpeak)
		r.Post("/speak_structured", s.handleSpeakStructured)
		r.Post("/realtime/session", s.handleRealtimeSession)
		r.Get("/realtime/instructions", s.handleRealtimeInstructions)
		r.Get("/status", s.handleStatus)
		r.Get("/voices", s.handleListVoices)
		r.Post("/tts/preview", s.handlePreviewTTS)
	})

	r.Handle("/*", s.static)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"voice_provider": s.cfg.VoiceProvider,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.turns == nil || s.structured == nil {
		respondError(w, http.StatusServiceUnavailable, "turn pipeline not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"voice_provider":   s.cfg.VoiceProvider,
		"realtime_enabled": s.negotiator != nil,
	})
}

func (s *Server) handleTalk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("audio")
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, "Audio file too large.")
			return
		}
		respondError(w, http.StatusBadRequest, voice.ErrMissingAudio.Error())
		return
	}
	defer file.Close()

	res, err := s.turns.Talk(r.Context(), voice.Upload{
		Reader:   file,
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		s.respondTurnError(w, r, "/api/talk", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type speakRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := s.decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.respondDecodeError(w, r, err)
		return
	}
	res, err := s.turns.Speak(r.Context(), req.Text)
	if err != nil {
		s.respondTurnError(w, r, "/api/speak", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type speakStructuredRequest struct {
	Text   string `json:"text"`
	Memory any    `json:"memory"`
}

func (s *Server) handleSpeakStructured(w http.ResponseWriter, r *http.Request) {
	var req speakStructuredRequest
	if err := s.decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.respondDecodeError(w, r, err)
		return
	}
	res, err := s.structured.Respond(r.Context(), req.Text, memory.FromPayload(req.Memory))
	if err != nil {
		s.respondTurnError(w, r, "/api/speak_structured", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleRealtimeSession(w http.ResponseWriter, r *http.Request) {
	if s.negotiator == nil {
		respondError(w, http.StatusNotImplemented, "realtime sessions are not available with this voice provider")
		return
	}
	offer, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxJSONBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Session offer too large.")
			return
		}
		respondError(w, http.StatusBadRequest, "Could not read session offer.")
		return
	}
	answer, err := s.negotiator.Negotiate(r.Context(), string(offer))
	if err != nil {
		s.respondTurnError(w, r, "/api/realtime/session", err)
		return
	}
	w.Header().Set("Content-Type", "application/sdp")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, answer)
}

type realtimeInstructionsResponse struct {
	Instructions string `json:"instructions"`
	Warmup       string `json:"warmup"`
}

// handleRealtimeInstructions serves the persona the browser sends in session.update.
func (s *Server) handleRealtimeInstructions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, realtimeInstructionsResponse{
		Instructions: protocol.BuildInstructions(),
		Warmup:       protocol.WarmupQuestion,
	})
}

func (s *Server) respondTurnError(w http.ResponseWriter, r *http.Request, route string, err error) {
	status, msg := voice.StatusOf(err)
	reqID, _ := RequestIDFrom(r.Context())
	s.logger.Error().Err(err).
		Str("route", route).
		Str("request_id", reqID).
		Int("status", status).
		Msg("turn failed")
	respondError(w, status, msg)
}

var errEmptyBody = errors.New("empty request body")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxJSONBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return errEmptyBody
	}
	return sonic.Unmarshal(raw, out)
}

// respondDecodeError keeps parser detail, which quotes the body, in the log only.
func (s *Server) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
		return
	}
	reqID, _ := RequestIDFrom(r.Context())
	s.logger.Debug().Err(err).Str("request_id", reqID).Msg("invalid request body")
	respondError(w, http.StatusBadRequest, "Invalid JSON body.")
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
