package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/config"
	"github.com/antoniostano/compagnon/internal/dialogue"
	"github.com/antoniostano/compagnon/internal/httpapi"
	"github.com/antoniostano/compagnon/internal/observability"
	"github.com/antoniostano/compagnon/internal/realtime"
	"github.com/antoniostano/compagnon/internal/reliability"
	"github.com/antoniostano/compagnon/internal/voice"
)

type BuildResult struct {
	Config     config.Config
	API        *httpapi.Server
	Pipeline   *voice.Pipeline
	Dialogue   *dialogue.Service
	Negotiator *realtime.Negotiator
	Metrics    *observability.Metrics

	// Cleanup should be called on shutdown to release idle upstream connections.
	Cleanup func() error
}

func Build(_ context.Context, cfg config.Config, logger zerolog.Logger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	// Upstream calls are bounded by the request context and the retry policy.
	upstreamHTTP := &http.Client{}

	var (
		provider   voice.Provider
		negotiator *realtime.Negotiator
	)
	switch strings.ToLower(strings.TrimSpace(cfg.VoiceProvider)) {
	case "openai":
		provider = voice.NewOpenAIProvider(voice.OpenAIConfig{
			APIKey:             cfg.OpenAIAPIKey,
			BaseURL:            cfg.OpenAIBaseURL,
			TranscriptionModel: cfg.TranscriptionModel,
			ChatModel:          cfg.ChatModel,
			SpeechModel:        cfg.SpeechModel,
			SpeechVoice:        cfg.SpeechVoice,
			HTTPClient:         upstreamHTTP,
		})
		negotiator = &realtime.Negotiator{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.RealtimeModel,
			Voice:      cfg.RealtimeVoice,
			HTTPClient: upstreamHTTP,
			Metrics:    metrics,
			Logger:     logger.With().Str("component", "realtime").Logger(),
		}
		logger.Info().Str("chat_model", cfg.ChatModel).Str("realtime_model", cfg.RealtimeModel).Msg("voice provider: openai")
	case "mock":
		provider = voice.NewMockProvider()
		logger.Warn().Msg("voice provider: mock (canned replies, realtime disabled)")
	default:
		return nil, fmt.Errorf("invalid VOICE_PROVIDER: %q (expected openai|mock)", cfg.VoiceProvider)
	}

	retryLog := logger.With().Str("component", "retry").Logger()
	provider = voice.WithRetry(provider, reliability.Policy{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		OnRetry: func(op string, attempt int, err error, wait time.Duration) {
			metrics.ObserveRetry(op)
			retryLog.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("transient upstream failure, retrying")
		},
	})

	pipeline := voice.NewPipeline(provider, voice.PipelineConfig{
		UploadDir:   cfg.UploadDir,
		KeepUploads: cfg.KeepUploads,
	}, metrics, logger)
	structured := dialogue.NewService(pipeline, metrics, logger)

	var api *httpapi.Server
	if negotiator != nil {
		api = httpapi.New(cfg, pipeline, structured, negotiator, metrics, logger)
	} else {
		// A nil *Negotiator in the interface would not compare equal to nil.
		api = httpapi.New(cfg, pipeline, structured, nil, metrics, logger)
	}

	return &BuildResult{
		Config:     cfg,
		API:        api,
		Pipeline:   pipeline,
		Dialogue:   structured,
		Negotiator: negotiator,
		Metrics:    metrics,
		Cleanup: func() error {
			upstreamHTTP.CloseIdleConnections()
			return nil
		},
	}, nil
}
