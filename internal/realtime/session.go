package realtime

import (
	"context"
	"encoding/base64"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/audio"
	"github.com/antoniostano/compagnon/internal/protocol"
)

// ControlChannel carries JSON control messages to the provider and its events back.
type ControlChannel interface {
	Send(ctx context.Context, msg any) error
	Events() <-chan protocol.ServerEvent
	Close() error
}

// Speakers reported through OnTranscript.
const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

type Transcript struct {
	Speaker string
	Text    string
	// Final marks the end of an assistant utterance; user transcripts are always final.
	Final bool
}

// Session status values reported through OnStatus.
const (
	StatusConnected = "connected"
	StatusReady     = "ready"
	StatusSpeaking  = "assistant speaking"
	StatusIdle      = "idle"
	StatusClosed    = "closed"
)

type SessionOptions struct {
	// Warmup asks a fixed question once the instructions are applied.
	Warmup       bool
	Instructions string
	// AudioFormat is the wire format of audio deltas; empty means PCM16.
	AudioFormat  string
	OnTranscript func(Transcript)
	OnStatus     func(status string)
	// OnAudio receives assistant audio as PCM16LE, for transports that carry audio
	// on the control channel.
	OnAudio func(pcm []byte)
	Logger  zerolog.Logger
}

// Session is one live realtime conversation. It owns its mic gate and control
// channel; no state is shared between sessions.
type Session struct {
	id      string
	channel ControlChannel
	gate    *EchoGate
	opts    SessionOptions
	logger  zerolog.Logger

	// touched only by the Run goroutine
	didUpdate bool
	didWarmup bool
	speaking  bool

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

func NewSession(mic MicTrack, channel ControlChannel, opts SessionOptions) *Session {
	return newSession(NewEchoGate(mic), channel, opts)
}

func newSession(gate *EchoGate, channel ControlChannel, opts SessionOptions) *Session {
	if opts.Instructions == "" {
		opts.Instructions = protocol.BuildInstructions()
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		channel: channel,
		gate:    gate,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "realtime").Str("session_id", id).Logger(),
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Gate() *EchoGate { return s.gate }

func (s *Session) Closed() bool { return s.closed.Load() }

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// StartTalking opens the microphone.
func (s *Session) StartTalking() {
	s.gate.StartTalking()
}

// StopTalkingAndRespond closes the microphone and asks the provider to answer.
// On a closed session only the mute happens.
func (s *Session) StopTalkingAndRespond(ctx context.Context) error {
	s.gate.StopTalking()
	if s.Closed() {
		return nil
	}
	return s.channel.Send(ctx, protocol.NewResponseCreate())
}

// Run consumes provider events until the channel closes or ctx ends, then
// closes the session.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	s.status(StatusConnected)
	events := s.channel.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(ctx, evt)
		}
	}
}

func (s *Session) handle(ctx context.Context, evt protocol.ServerEvent) {
	s.logger.Debug().Str("type", string(evt.Type)).Msg("realtime event")
	switch evt.Type {
	case protocol.TypeSessionCreated:
		if s.didUpdate {
			return
		}
		s.didUpdate = true
		s.send(ctx, s.sessionUpdate())
	case protocol.TypeSessionUpdated:
		if !s.opts.Warmup || s.didWarmup {
			s.status(StatusReady)
			return
		}
		s.didWarmup = true
		s.send(ctx, protocol.NewUserText(protocol.WarmupQuestion))
		s.send(ctx, protocol.NewResponseCreate())
		s.status(StatusReady)
	case protocol.TypeError:
		ev := s.logger.Error()
		if evt.Error != nil {
			ev = ev.Str("code", evt.Error.Code).Str("error_type", evt.Error.Type).Str("message", evt.Error.Message)
		}
		ev.Msg("realtime provider error")
	case protocol.TypeInputTranscriptCompleted:
		if evt.Transcript != "" {
			s.transcript(Transcript{Speaker: SpeakerUser, Text: evt.Transcript, Final: true})
		}
	case protocol.TypeOutputTextDelta, protocol.TypeOutputTranscriptDelta:
		if evt.Delta != "" {
			s.transcript(Transcript{Speaker: SpeakerAssistant, Text: evt.Delta})
		}
	case protocol.TypeOutputTextDone, protocol.TypeOutputTranscriptDone:
		s.transcript(Transcript{Speaker: SpeakerAssistant, Final: true})
	case protocol.TypeOutputAudioDelta:
		if !s.speaking {
			s.speaking = true
			s.gate.PlaybackStarted()
			s.status(StatusSpeaking)
		}
		s.forwardAudio(evt.Delta)
	case protocol.TypeOutputAudioDone:
		if s.speaking {
			s.speaking = false
			s.gate.PlaybackEnded()
			s.status(StatusIdle)
		}
	}
}

func (s *Session) sessionUpdate() protocol.SessionUpdate {
	msg := protocol.NewSessionUpdate(s.opts.Instructions)
	if f := s.opts.AudioFormat; f != "" && f != audio.FormatPCM16 {
		format := &protocol.AudioFormat{Type: f}
		msg.Session.Audio = &protocol.AudioConfig{
			Input:  &protocol.AudioInput{Format: format},
			Output: &protocol.AudioOutput{Format: format},
		}
	}
	return msg
}

func (s *Session) forwardAudio(delta string) {
	if s.opts.OnAudio == nil || delta == "" {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(delta)
	if err != nil {
		s.logger.Warn().Err(err).Msg("undecodable audio delta")
		return
	}
	pcm, err := audio.DecodeFromWire(raw, s.opts.AudioFormat)
	if err != nil {
		s.logger.Warn().Err(err).Msg("undecodable audio delta")
		return
	}
	s.opts.OnAudio(pcm)
}

func (s *Session) send(ctx context.Context, msg any) {
	if err := s.channel.Send(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Msg("realtime send failed")
	}
}

func (s *Session) transcript(t Transcript) {
	if s.opts.OnTranscript != nil {
		s.opts.OnTranscript(t)
	}
}

func (s *Session) status(status string) {
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(status)
	}
}

// Close tears the session down. It is idempotent and never fails: release
// errors are logged and teardown always completes.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.gate.Stop()
		if err := s.channel.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("control channel close failed")
		}
		close(s.done)
		s.status(StatusClosed)
	})
}
