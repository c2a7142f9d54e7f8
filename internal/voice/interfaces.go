package voice

import "context"

// Chat roles accepted by ChatProvider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type TranscriptionRequest struct {
	// FilePath is the recording on disk; its extension tells the provider the container.
	FilePath string
	MIMEType string
}

type ChatRequest struct {
	Messages []Message
	// JSON asks the model for a single JSON object.
	JSON bool
}

type SpeechRequest struct {
	Text string
}

type STTProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}

type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// TTSProvider returns MP3 bytes.
type TTSProvider interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Provider is one conversational AI backend serving all three stages.
type Provider interface {
	STTProvider
	ChatProvider
	TTSProvider
}

// Stage names, used for retries, metrics and error reporting.
const (
	OpTranscribe = "stt"
	OpComplete   = "llm"
	OpSynthesize = "tts"
)
