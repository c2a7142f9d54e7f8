package realtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/compagnon/internal/audio"
	"github.com/antoniostano/compagnon/internal/protocol"
)

const DefaultWSURL = "wss://api.openai.com/v1/realtime"

type WSConfig struct {
	URL    string
	APIKey string
	Model  string
	// Format is the input audio wire format; see the audio package.
	Format string
	Dialer *websocket.Dialer
}

// WSControlChannel speaks the realtime protocol over a websocket, for clients
// without WebRTC. Audio travels on the same connection.
type WSControlChannel struct {
	conn      *websocket.Conn
	format    string
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	events    chan protocol.ServerEvent
}

func DialWS(ctx context.Context, cfg WSConfig) (*WSControlChannel, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		raw = DefaultWSURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	q := u.Query()
	q.Set("model", model)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+cfg.APIKey)

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial realtime websocket: %w", err)
	}

	ch := &WSControlChannel{
		conn:   conn,
		format: cfg.Format,
		done:   make(chan struct{}),
		events: make(chan protocol.ServerEvent, 256),
	}
	go ch.readLoop()
	return ch, nil
}

func (c *WSControlChannel) Send(ctx context.Context, msg any) error {
	raw, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode realtime message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// AppendAudio sends PCM16LE mono audio into the provider's input buffer,
// converted to the channel's wire format.
func (c *WSControlChannel) AppendAudio(ctx context.Context, pcm []byte) error {
	data, err := audio.EncodeForWire(pcm, c.format)
	if err != nil {
		return err
	}
	return c.Send(ctx, protocol.NewInputAudioAppend(base64.StdEncoding.EncodeToString(data)))
}

// CommitAudio closes the current input buffer into a user message.
func (c *WSControlChannel) CommitAudio(ctx context.Context) error {
	return c.Send(ctx, protocol.NewInputAudioCommit())
}

func (c *WSControlChannel) Events() <-chan protocol.ServerEvent { return c.events }

func (c *WSControlChannel) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		evt, err := protocol.ParseServerEvent(data)
		if err != nil {
			continue
		}
		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}

func (c *WSControlChannel) Close() error {
	var retErr error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		retErr = c.conn.Close()
	})
	return retErr
}
