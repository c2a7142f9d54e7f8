package realtime

import (
	"context"
	"sync/atomic"
	"time"
)

// AudioSink accepts PCM16LE mono input audio.
type AudioSink interface {
	AppendAudio(ctx context.Context, pcm []byte) error
}

// StreamMic is a MicTrack over a recorded PCM buffer. While disabled its frames
// are dropped, as a muted capture track would.
type StreamMic struct {
	enabled atomic.Bool
	sink    AudioSink
	// FrameBytes per append; 4800 bytes is 100ms of 24kHz PCM16.
	FrameBytes int
	// Pace spaces frames in real time when set.
	Pace time.Duration
}

func NewStreamMic(sink AudioSink) *StreamMic {
	return &StreamMic{sink: sink, FrameBytes: 4800}
}

func (m *StreamMic) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

func (m *StreamMic) Enabled() bool { return m.enabled.Load() }

// Stream sends pcm frame by frame and reports how many frames reached the sink.
func (m *StreamMic) Stream(ctx context.Context, pcm []byte) (int, error) {
	frame := m.FrameBytes
	if frame <= 0 || frame%2 != 0 {
		frame = 4800
	}
	sent := 0
	for off := 0; off < len(pcm); off += frame {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		end := off + frame
		if end > len(pcm) {
			end = len(pcm) &^ 1
		}
		if end <= off {
			break
		}
		if m.Enabled() {
			if err := m.sink.AppendAudio(ctx, pcm[off:end]); err != nil {
				return sent, err
			}
			sent++
		}
		if m.Pace > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(m.Pace):
			}
		}
	}
	return sent, nil
}
