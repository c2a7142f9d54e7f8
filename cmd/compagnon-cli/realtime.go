package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/audio"
	"github.com/antoniostano/compagnon/internal/config"
	"github.com/antoniostano/compagnon/internal/realtime"
)

type realtimeOptions struct {
	in      string
	out     string
	format  string
	warmup  bool
	timeout time.Duration
	pace    bool
}

// runRealtime holds one websocket session: optional warmup exchange, then the
// recording in -in spoken into the session, with the assistant's audio saved to -out.
func runRealtime(ctx context.Context, cfg config.ClientConfig, logger zerolog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("realtime", flag.ContinueOnError)
	var opts realtimeOptions
	fs.StringVar(&opts.in, "in", "", "WAV recording (PCM16 mono) to speak into the session")
	fs.StringVar(&opts.out, "out", "assistant.wav", "where to write the assistant's audio")
	fs.StringVar(&opts.format, "format", audio.FormatPCM16, "audio wire format: audio/pcm or audio/pcmu")
	fs.BoolVar(&opts.warmup, "warmup", true, "ask the warmup question first")
	fs.DurationVar(&opts.timeout, "timeout", 60*time.Second, "give up waiting for the assistant after this long")
	fs.BoolVar(&opts.pace, "pace", true, "stream the recording in real time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return config.ErrMissingAPIKey
	}

	rate := audio.WireSampleRate(opts.format)
	var input []byte
	if opts.in != "" {
		data, err := os.ReadFile(opts.in)
		if err != nil {
			return fmt.Errorf("read recording: %w", err)
		}
		pcm, inRate, err := audio.DecodeWAVPCM16(data)
		if err != nil {
			return fmt.Errorf("decode recording: %w", err)
		}
		if inRate != rate {
			return fmt.Errorf("recording is %d Hz, %s needs %d Hz", inRate, opts.format, rate)
		}
		input = pcm
	}

	var (
		mu        sync.Mutex
		assistant bytes.Buffer
		lineOpen  bool
		statusCh  = make(chan string, 16)
		mic       *realtime.StreamMic
		wsChannel *realtime.WSControlChannel
		connector realtime.Connector
	)
	defer connector.Disconnect()

	sessionOpts := realtime.SessionOptions{
		Warmup:      opts.warmup,
		AudioFormat: opts.format,
		Logger:      logger,
		OnTranscript: func(t realtime.Transcript) {
			mu.Lock()
			defer mu.Unlock()
			switch {
			case t.Speaker == realtime.SpeakerUser:
				fmt.Fprintf(stdout, "Vous : %s\n", t.Text)
			case t.Final:
				if lineOpen {
					fmt.Fprintln(stdout)
					lineOpen = false
				}
			default:
				if !lineOpen {
					fmt.Fprint(stdout, "Compagnon : ")
					lineOpen = true
				}
				fmt.Fprint(stdout, t.Text)
			}
		},
		OnAudio: func(pcm []byte) {
			mu.Lock()
			assistant.Write(pcm)
			mu.Unlock()
		},
		OnStatus: func(s string) {
			status(os.Stderr, s)
			select {
			case statusCh <- s:
			default:
			}
		},
	}

	session, err := connector.Connect(ctx, func(ctx context.Context) (*realtime.Session, error) {
		ch, err := realtime.DialWS(ctx, realtime.WSConfig{
			URL:    cfg.RealtimeURL,
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.RealtimeModel,
			Format: opts.format,
		})
		if err != nil {
			return nil, err
		}
		wsChannel = ch
		mic = realtime.NewStreamMic(ch)
		if opts.pace {
			mic.Pace = 100 * time.Millisecond
		}
		return realtime.NewSession(mic, ch, sessionOpts), nil
	})
	if err != nil {
		return err
	}

	if err := awaitStatus(ctx, statusCh, realtime.StatusReady, opts.timeout); err != nil {
		return err
	}
	if opts.warmup {
		if err := awaitStatus(ctx, statusCh, realtime.StatusIdle, opts.timeout); err != nil {
			return err
		}
	}

	if len(input) > 0 {
		status(os.Stderr, "recording")
		session.StartTalking()
		frames, err := mic.Stream(ctx, input)
		if err != nil {
			return fmt.Errorf("stream recording: %w", err)
		}
		logger.Debug().Int("frames", frames).Msg("recording streamed")
		if err := wsChannel.CommitAudio(ctx); err != nil {
			return err
		}
		if err := session.StopTalkingAndRespond(ctx); err != nil {
			return err
		}
		if err := awaitStatus(ctx, statusCh, realtime.StatusIdle, opts.timeout); err != nil {
			return err
		}
	}

	connector.Disconnect()

	mu.Lock()
	pcm := assistant.Bytes()
	mu.Unlock()
	if len(pcm) == 0 {
		return nil
	}
	if err := audio.WriteWAVPCM16LEFile(opts.out, pcm, rate); err != nil {
		return fmt.Errorf("write assistant audio: %w", err)
	}
	fmt.Fprintf(os.Stderr, "audio: %s (%.1fs)\n", opts.out, float64(len(pcm)/2)/float64(rate))
	return nil
}

var errSessionClosed = errors.New("realtime session closed")

func awaitStatus(ctx context.Context, statusCh <-chan string, want string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("timed out waiting for %q", want)
		case s := <-statusCh:
			if s == want {
				return nil
			}
			if s == realtime.StatusClosed {
				return errSessionClosed
			}
		}
	}
}
