package voice

import (
	"context"

	"github.com/antoniostano/compagnon/internal/reliability"
)

// WithRetry wraps every stage of p so transient network failures are retried
// under policy. Provider rejections pass through untouched.
func WithRetry(p Provider, policy reliability.Policy) Provider {
	if policy.Attempts <= 1 {
		return p
	}
	return &retryingProvider{next: p, policy: policy}
}

type retryingProvider struct {
	next   Provider
	policy reliability.Policy
}

func (r *retryingProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	return reliability.Retry(ctx, r.policy, OpTranscribe, func(ctx context.Context) (string, error) {
		return r.next.Transcribe(ctx, req)
	})
}

func (r *retryingProvider) Complete(ctx context.Context, req ChatRequest) (string, error) {
	return reliability.Retry(ctx, r.policy, OpComplete, func(ctx context.Context) (string, error) {
		return r.next.Complete(ctx, req)
	})
}

func (r *retryingProvider) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	return reliability.Retry(ctx, r.policy, OpSynthesize, func(ctx context.Context) ([]byte, error) {
		return r.next.Synthesize(ctx, req)
	})
}
