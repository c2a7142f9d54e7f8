package protocol

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// EventType identifies realtime control-channel payload variants.
type EventType string

// Client events.
const (
	TypeSessionUpdate          EventType = "session.update"
	TypeConversationItemCreate EventType = "conversation.item.create"
	TypeResponseCreate         EventType = "response.create"
	TypeInputAudioAppend       EventType = "input_audio_buffer.append"
	TypeInputAudioCommit       EventType = "input_audio_buffer.commit"
)

// Server events.
const (
	TypeSessionCreated           EventType = "session.created"
	TypeSessionUpdated           EventType = "session.updated"
	TypeError                    EventType = "error"
	TypeInputTranscriptCompleted EventType = "conversation.item.input_audio_transcription.completed"
	TypeOutputTextDelta          EventType = "response.output_text.delta"
	TypeOutputTextDone           EventType = "response.output_text.done"
	TypeOutputAudioDelta         EventType = "response.output_audio.delta"
	TypeOutputAudioDone          EventType = "response.output_audio.done"
	TypeOutputTranscriptDelta    EventType = "response.output_audio_transcript.delta"
	TypeOutputTranscriptDone     EventType = "response.output_audio_transcript.done"
	TypeResponseDone             EventType = "response.done"
)

// SessionKindRealtime is the only session type this service opens.
const SessionKindRealtime = "realtime"

var ErrMissingType = errors.New("realtime event without type")

type AudioFormat struct {
	Type string `json:"type"`
	Rate int    `json:"rate,omitempty"`
}

type AudioInput struct {
	Format *AudioFormat `json:"format,omitempty"`
}

type AudioOutput struct {
	Voice  string       `json:"voice,omitempty"`
	Format *AudioFormat `json:"format,omitempty"`
}

type AudioConfig struct {
	Input  *AudioInput  `json:"input,omitempty"`
	Output *AudioOutput `json:"output,omitempty"`
}

// SessionConfig is shared by the negotiation form and session.update.
type SessionConfig struct {
	Type         string       `json:"type"`
	Model        string       `json:"model,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	Audio        *AudioConfig `json:"audio,omitempty"`
}

type SessionUpdate struct {
	Type    EventType     `json:"type"`
	Session SessionConfig `json:"session"`
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ConversationItemCreate struct {
	Type EventType        `json:"type"`
	Item ConversationItem `json:"item"`
}

type ResponseCreate struct {
	Type EventType `json:"type"`
}

type InputAudioBufferAppend struct {
	Type EventType `json:"type"`
	// Audio is base64 in the session's input format.
	Audio string `json:"audio"`
}

type InputAudioBufferCommit struct {
	Type EventType `json:"type"`
}

func NewSessionUpdate(instructions string) SessionUpdate {
	return SessionUpdate{
		Type:    TypeSessionUpdate,
		Session: SessionConfig{Type: SessionKindRealtime, Instructions: instructions},
	}
}

// NewUserText creates a user message item carrying text.
func NewUserText(text string) ConversationItemCreate {
	return ConversationItemCreate{
		Type: TypeConversationItemCreate,
		Item: ConversationItem{
			Type:    "message",
			Role:    "user",
			Content: []ContentPart{{Type: "input_text", Text: text}},
		},
	}
}

func NewResponseCreate() ResponseCreate {
	return ResponseCreate{Type: TypeResponseCreate}
}

func NewInputAudioAppend(audioBase64 string) InputAudioBufferAppend {
	return InputAudioBufferAppend{Type: TypeInputAudioAppend, Audio: audioBase64}
}

func NewInputAudioCommit() InputAudioBufferCommit {
	return InputAudioBufferCommit{Type: TypeInputAudioCommit}
}

type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Param   string `json:"param,omitempty"`
}

// ServerEvent keeps the fields this client acts on; everything else is ignored.
type ServerEvent struct {
	Type       EventType    `json:"type"`
	EventID    string       `json:"event_id,omitempty"`
	ItemID     string       `json:"item_id,omitempty"`
	Transcript string       `json:"transcript,omitempty"`
	Delta      string       `json:"delta,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

func ParseServerEvent(raw []byte) (ServerEvent, error) {
	var evt ServerEvent
	if err := sonic.Unmarshal(raw, &evt); err != nil {
		return ServerEvent{}, fmt.Errorf("invalid realtime event: %w", err)
	}
	if evt.Type == "" {
		return ServerEvent{}, ErrMissingType
	}
	return evt, nil
}

// Encode serializes a client event for the control channel.
func Encode(msg any) ([]byte, error) {
	return sonic.Marshal(msg)
}
