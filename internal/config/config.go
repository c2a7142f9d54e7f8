package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when the upstream credential is absent.
var ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY in environment or .env")

// Config contains all runtime settings for the compagnon voice service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	LogLevel  string
	LogFormat string

	VoiceProvider string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	TranscriptionModel string
	ChatModel          string
	SpeechModel        string
	SpeechVoice        string
	RealtimeModel      string
	RealtimeVoice      string

	RetryAttempts  int
	RetryBaseDelay time.Duration

	UploadDir      string
	KeepUploads    bool
	MaxUploadBytes int64
	MaxJSONBytes   int64
}

// ClientConfig holds settings for the command-line client.
type ClientConfig struct {
	BaseURL     string
	HomeDir     string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	// Realtime sessions from the CLI talk to the provider directly.
	OpenAIAPIKey  string
	RealtimeURL   string
	RealtimeModel string
}

// Load reads .env (when present) and environment variables and applies defaults.
func Load() (Config, error) {
	loadDotEnv()

	cfg := Config{
		BindAddr:           bindAddr(),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "compagnon"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "console"),
		VoiceProvider:      strings.ToLower(envOrDefault("VOICE_PROVIDER", "openai")),
		OpenAIAPIKey:       stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:      envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		TranscriptionModel: envOrDefault("OPENAI_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
		ChatModel:          envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		SpeechModel:        envOrDefault("OPENAI_TTS_MODEL", "gpt-4o-mini-tts"),
		SpeechVoice:        envOrDefault("OPENAI_TTS_VOICE", "alloy"),
		// gpt-realtime-mini is cheaper; marin and cedar are the recommended voices.
		RealtimeModel:   envOrDefault("OPENAI_REALTIME_MODEL", "gpt-realtime"),
		RealtimeVoice:   envOrDefault("OPENAI_REALTIME_VOICE", "marin"),
		UploadDir:       envOrDefault("UPLOAD_DIR", "tmp_uploads"),
		ShutdownTimeout: 15 * time.Second,
		RetryAttempts:   3,
		RetryBaseDelay:  400 * time.Millisecond,
		KeepUploads:     false,
		MaxUploadBytes:  25 << 20,
		MaxJSONBytes:    1 << 20,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryBaseDelay, err = durationFromEnv("UPSTREAM_RETRY_BASE_DELAY", cfg.RetryBaseDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryAttempts, err = intFromEnv("UPSTREAM_RETRY_ATTEMPTS", cfg.RetryAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.KeepUploads, err = boolFromEnv("KEEP_UPLOADS", cfg.KeepUploads)
	if err != nil {
		return Config{}, err
	}
	maxUpload, err := intFromEnv("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes))
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	switch cfg.VoiceProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Config{}, ErrMissingAPIKey
		}
	case "mock":
	default:
		return Config{}, fmt.Errorf("invalid VOICE_PROVIDER: %q (expected openai|mock)", cfg.VoiceProvider)
	}
	if cfg.RetryAttempts <= 0 {
		return Config{}, fmt.Errorf("UPSTREAM_RETRY_ATTEMPTS must be positive")
	}
	if cfg.RetryBaseDelay < 0 {
		return Config{}, fmt.Errorf("UPSTREAM_RETRY_BASE_DELAY must be >= 0")
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

// LoadClient reads the client settings. Flags may override the result.
func LoadClient() ClientConfig {
	loadDotEnv()
	home := stringsTrimSpace("COMPAGNON_HOME")
	if home == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(dir, ".compagnon")
		}
	}
	return ClientConfig{
		BaseURL:     envOrDefault("COMPAGNON_URL", "http://localhost:5177"),
		HomeDir:     home,
		DatabaseURL: stringsTrimSpace("DATABASE_URL"),
		LogLevel:    envOrDefault("LOG_LEVEL", "warn"),
		LogFormat:   envOrDefault("LOG_FORMAT", "console"),

		OpenAIAPIKey:  stringsTrimSpace("OPENAI_API_KEY"),
		RealtimeURL:   envOrDefault("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		RealtimeModel: envOrDefault("OPENAI_REALTIME_MODEL", "gpt-realtime"),
	}
}

// loadDotEnv never overrides variables already present in the process environment.
func loadDotEnv() {
	path := stringsTrimSpace("COMPAGNON_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func bindAddr() string {
	if v := stringsTrimSpace("APP_BIND_ADDR"); v != "" {
		return v
	}
	return ":" + envOrDefault("PORT", "5177")
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
