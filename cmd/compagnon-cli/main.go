package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/antoniostano/compagnon/internal/client"
	"github.com/antoniostano/compagnon/internal/config"
	"github.com/antoniostano/compagnon/internal/logging"
	"github.com/antoniostano/compagnon/internal/memory"
)

const usage = `usage: compagnon-cli <command> [flags]

commands:
  talk <file>        send a recorded voice note
  speak <text>       ask a question in writing
  ask <text>         ask with intent/emotion, remembering the conversation
  memory             print the remembered conversation
  reset              forget the conversation
  realtime           hold a realtime session over websocket
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg := config.LoadClient()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		status(os.Stderr, "error")
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			fmt.Fprintln(os.Stderr, "the server is temporarily unavailable; try again")
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ClientConfig, logger zerolog.Logger, cmd string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	baseURL := fs.String("url", cfg.BaseURL, "compagnon server URL")
	out := fs.String("out", "reply.mp3", "where to write the spoken reply")

	if cmd == "realtime" {
		return runRealtime(ctx, cfg, logger, args, stdout)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	storage, err := memory.NewStorage(ctx, cfg.DatabaseURL, cfg.HomeDir)
	if err != nil {
		return fmt.Errorf("open memory storage: %w", err)
	}
	buf := memory.NewBuffer(storage, logger)
	defer buf.Close()
	c := client.New(*baseURL, buf, client.WithLogger(logger))

	text := strings.Join(fs.Args(), " ")
	switch cmd {
	case "talk":
		if fs.NArg() != 1 {
			return errors.New("talk needs exactly one recording file")
		}
		status(os.Stderr, "uploading")
		res, err := c.Talk(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Transcription : %s\n", orEmpty(res.Transcript))
		fmt.Fprintf(stdout, "Réponse : %s\n", orEmpty(res.ReplyText))
		return playReply(*out, res.AudioMP3Base64)
	case "speak":
		status(os.Stderr, "uploading")
		res, err := c.Speak(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Réponse : %s\n", orEmpty(res.ReplyText))
		return playReply(*out, res.AudioMP3Base64)
	case "ask":
		status(os.Stderr, "uploading")
		res, err := c.AskStructured(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "intent: %s  emotion: %s  conf: %.2f\n", res.Intent, res.Emotion, res.Confidence)
		fmt.Fprintf(stdout, "Réponse : %s\n", orEmpty(res.ReplyText))
		return playReply(*out, res.AudioMP3Base64)
	case "memory":
		raw, err := sonic.ConfigStd.MarshalIndent(c.Memory(ctx), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(raw))
		return nil
	case "reset":
		c.Reset(ctx)
		fmt.Fprintln(stdout, "Conversation réinitialisée.")
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// playReply stands in for the browser's audio element: the reply is written to path.
func playReply(path, audioB64 string) error {
	if audioB64 == "" {
		status(os.Stderr, "idle")
		return nil
	}
	mp3, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return fmt.Errorf("decode reply audio: %w", err)
	}
	status(os.Stderr, "playing")
	if err := os.WriteFile(path, mp3, 0o644); err != nil {
		return fmt.Errorf("write reply audio: %w", err)
	}
	fmt.Fprintf(os.Stderr, "audio: %s (%d bytes)\n", path, len(mp3))
	status(os.Stderr, "idle")
	return nil
}

func status(w io.Writer, s string) {
	fmt.Fprintf(w, "[%s]\n", s)
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(vide)"
	}
	return s
}
