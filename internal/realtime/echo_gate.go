package realtime

import (
	"sync"
	"time"
)

// UnmuteDelay debounces re-enabling the microphone after assistant playback stops.
const UnmuteDelay = 150 * time.Millisecond

// MicTrack is the local capture track the gate switches on and off.
type MicTrack interface {
	SetEnabled(enabled bool)
}

type stopper interface {
	Stop() bool
}

// afterFunc matches time.AfterFunc; tests swap in a manual clock.
type afterFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) }

// EchoGate keeps the microphone muted while the assistant is audible, so the
// provider never hears its own voice. It starts muted.
type EchoGate struct {
	mu        sync.Mutex
	mic       MicTrack
	after     afterFunc
	pending   stopper
	pendingID uint64
	muted     bool
	stopped   bool
}

func NewEchoGate(mic MicTrack) *EchoGate {
	return newEchoGate(mic, realAfterFunc)
}

func newEchoGate(mic MicTrack, after afterFunc) *EchoGate {
	g := &EchoGate{mic: mic, after: after, muted: true}
	g.apply()
	return g
}

// PlaybackStarted mutes immediately and drops any pending unmute.
func (g *EchoGate) PlaybackStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelPendingLocked()
	g.setMutedLocked(true)
}

func (g *EchoGate) PlaybackPaused() { g.scheduleUnmute() }

func (g *EchoGate) PlaybackEnded() { g.scheduleUnmute() }

// StartTalking unmutes immediately on the visitor's request.
func (g *EchoGate) StartTalking() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelPendingLocked()
	g.setMutedLocked(false)
}

// StopTalking mutes immediately; a pending unmute would otherwise reopen the mic.
func (g *EchoGate) StopTalking() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelPendingLocked()
	g.setMutedLocked(true)
}

func (g *EchoGate) Muted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// Stop cancels any timer and leaves the mic muted for good.
func (g *EchoGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelPendingLocked()
	g.setMutedLocked(true)
	g.stopped = true
}

func (g *EchoGate) scheduleUnmute() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.cancelPendingLocked()
	g.pendingID++
	id := g.pendingID
	g.pending = g.after(UnmuteDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.stopped || g.pendingID != id || g.pending == nil {
			return
		}
		g.pending = nil
		g.setMutedLocked(false)
	})
}

func (g *EchoGate) cancelPendingLocked() {
	if g.pending != nil {
		g.pending.Stop()
		g.pending = nil
	}
	g.pendingID++
}

func (g *EchoGate) setMutedLocked(muted bool) {
	if g.stopped {
		return
	}
	g.muted = muted
	g.apply()
}

func (g *EchoGate) apply() {
	if g.mic != nil {
		g.mic.SetEnabled(!g.muted)
	}
}
