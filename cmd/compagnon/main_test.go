package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/antoniostano/compagnon/internal/config"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "APP_BIND_ADDR", "PORT", "UPLOAD_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	t.Setenv("COMPAGNON_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
}

func TestRunFailsWithoutAPIKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("VOICE_PROVIDER", "openai")

	err := run(context.Background())
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("run() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	isolateEnv(t)
	t.Setenv("VOICE_PROVIDER", "mock")
	t.Setenv("APP_BIND_ADDR", "127.0.0.1:0")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run() did not return after cancel")
	}
}
