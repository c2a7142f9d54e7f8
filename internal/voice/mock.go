package voice

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
)

// MockProvider is a deterministic offline provider used when VOICE_PROVIDER=mock.
// It never calls the network: transcription reports the recording size, chat
// echoes the last user message and synthesis returns a tagged byte payload.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

// mockAudioTag prefixes synthesized payloads so clients can tell them apart from real MP3.
const mockAudioTag = "MOCK-MP3:"

func (p *MockProvider) Transcribe(_ context.Context, req TranscriptionRequest) (string, error) {
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if info.Size() == 0 {
		return "", nil
	}
	return fmt.Sprintf("enregistrement de %d octets", info.Size()), nil
}

func (p *MockProvider) Complete(_ context.Context, req ChatRequest) (string, error) {
	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}
	reply := "Vous avez dit : " + last
	if !req.JSON {
		return reply, nil
	}
	out, err := sonic.MarshalString(map[string]any{
		"intent":     "explain_project",
		"emotion":    "neutral",
		"confidence": 0.9,
		"replyText":  reply,
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return out, nil
}

func (p *MockProvider) Synthesize(_ context.Context, req SpeechRequest) ([]byte, error) {
	return []byte(mockAudioTag + req.Text), nil
}
