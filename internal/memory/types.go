package memory

import "context"

const (
	// Key is the storage key the conversation memory lives under.
	Key = "companion_memory_v1"
	// MaxTurns caps the number of retained turns.
	MaxTurns = 12
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory is the client-held conversation context sent with structured questions.
type Memory struct {
	Turns   []Turn `json:"turns"`
	Summary string `json:"summary"`
}

// Empty is the memory of a fresh conversation.
func Empty() Memory {
	return Memory{Turns: []Turn{}, Summary: ""}
}

// Storage is a string key/value store in the manner of browser local storage.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
