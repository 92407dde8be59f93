package store

import (
	"sync"
	"time"
)

// DefaultEchoWindow is how long after a local write the store ignores
// change-feed notifications. Long enough to cover the write's own
// propagation, short enough that genuine external edits surface soon.
const DefaultEchoWindow = 3 * time.Second

// echoGate drops change-feed notifications caused by the client's own
// recent writes. A single wall-clock timestamp is the whole mechanism:
// this is a heuristic, not a correctness guarantee. A slow write can
// still leak an echo past the window, and a fast external change inside
// the window is suppressed until the next notification.
type echoGate struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   time.Time
}

// markWrite records that a local mutation was just mirrored remotely.
func (g *echoGate) markWrite() {
	g.mu.Lock()
	g.last = g.now()
	g.mu.Unlock()
}

// suppress reports whether an incoming notification should be dropped.
func (g *echoGate) suppress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.last.IsZero() && g.now().Sub(g.last) < g.window
}
