package reliability

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

func TestRetryRecoversAfterTwoResets(t *testing.T) {
	calls := 0
	var waits []time.Duration
	p := Policy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
		OnRetry: func(_ string, _ int, _ error, wait time.Duration) {
			waits = append(waits, wait)
		},
	}

	got, err := Retry(context.Background(), p, "stt", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", syscall.ECONNRESET
		}
		return "bonjour", nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != "bonjour" {
		t.Fatalf("Retry() = %q, want %q", got, "bonjour")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(waits) != len(want) || waits[0] != want[0] || waits[1] != want[1] {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	authErr := errors.New("status code: 401, message: invalid api key")

	_, err := Retry(context.Background(), Policy{Attempts: 3, BaseDelay: time.Millisecond}, "chat", func(context.Context) (int, error) {
		calls++
		return 0, authErr
	})
	if !errors.Is(err, authErr) || err != authErr {
		t.Fatalf("Retry() error = %v, want the original error unchanged", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), Policy{Attempts: 3, BaseDelay: time.Millisecond}, "tts", func(context.Context) (int, error) {
		calls++
		return 0, syscall.ETIMEDOUT
	})
	if !errors.Is(err, syscall.ETIMEDOUT) {
		t.Fatalf("Retry() error = %v, want ETIMEDOUT", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryDefaultScheduleDoubles(t *testing.T) {
	var waits []time.Duration
	p := DefaultPolicy()
	p.Attempts = 4
	p.OnRetry = func(_ string, _ int, _ error, wait time.Duration) { waits = append(waits, wait) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	_, _ = Retry(ctx, p, "stt", func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			// Stop after observing the first scheduled wait to keep the test fast.
			cancel()
		}
		return 0, syscall.ECONNRESET
	})
	if len(waits) == 0 || waits[0] != 400*time.Millisecond {
		t.Fatalf("first wait = %v, want 400ms", waits)
	}
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, Policy{Attempts: 5, BaseDelay: time.Hour}, "stt", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, syscall.ECONNRESET
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Retry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
