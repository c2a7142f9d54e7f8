package realtime

import (
	"context"
	"sync"
)

// DialFunc opens a new session; it must not start Run.
type DialFunc func(ctx context.Context) (*Session, error)

// Connector holds at most one live session. Connecting again tears the previous
// session down first.
type Connector struct {
	mu      sync.Mutex
	current *Session
	cancel  context.CancelFunc
	runDone chan struct{}
}

// Connect dials a session and runs it until ctx ends or Disconnect is called.
func (c *Connector) Connect(ctx context.Context, dial DialFunc) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()

	s, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(runCtx)
	}()
	c.current, c.cancel, c.runDone = s, cancel, done
	return s, nil
}

// Disconnect closes the current session, if any. Safe to call repeatedly.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && !c.current.Closed()
}

// Current returns the live session or nil.
func (c *Connector) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.Closed() {
		return nil
	}
	return c.current
}

func (c *Connector) disconnectLocked() {
	if c.current == nil {
		return
	}
	c.cancel()
	c.current.Close()
	<-c.runDone
	c.current, c.cancel, c.runDone = nil, nil, nil
}
