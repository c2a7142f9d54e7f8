package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig selects the models and voice used against the OpenAI API.
type OpenAIConfig struct {
	APIKey string
	// BaseURL includes the version prefix, e.g. https://api.openai.com/v1.
	BaseURL            string
	TranscriptionModel string
	ChatModel          string
	SpeechModel        string
	SpeechVoice        string
	HTTPClient         *http.Client
}

// OpenAIProvider serves transcription, chat completion and speech synthesis
// through the OpenAI REST API.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if strings.TrimSpace(cfg.TranscriptionModel) == "" {
		cfg.TranscriptionModel = "gpt-4o-mini-transcribe"
	}
	if strings.TrimSpace(cfg.ChatModel) == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if strings.TrimSpace(cfg.SpeechModel) == "" {
		cfg.SpeechModel = "gpt-4o-mini-tts"
	}
	if strings.TrimSpace(cfg.SpeechVoice) == "" {
		cfg.SpeechVoice = string(openai.VoiceAlloy)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

func (p *OpenAIProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.cfg.TranscriptionModel,
		FilePath: req.FilePath,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	chatReq := openai.ChatCompletionRequest{
		Model:    p.cfg.ChatModel,
		Messages: messages,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.cfg.SpeechModel),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(p.cfg.SpeechVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Close()
	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("synthesize: read audio: %w", err)
	}
	return audio, nil
}
