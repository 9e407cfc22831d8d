// Package dedup provides the process-local gate that suppresses duplicate
// alerts caused by webhook re-delivery. Intentionally not durable: a restart
// may permit at most one duplicate per in-flight transaction.
package dedup

import (
	"sync"
	"time"
)

// DefaultWindow is the default retention period for seen entries.
const DefaultWindow = 24 * time.Hour

// evictEvery bounds how often a ShouldAlert call scans for expired entries.
const evictEvery = 1000

// Gate remembers (signature, wallet) pairs that have already been alerted.
// Created at startup, bounded by the retention window, never persisted.
type Gate struct {
	mu     sync.Mutex
	seen   map[key]time.Time
	window time.Duration
	now    func() time.Time
	calls  int
}

type key struct {
	signature string
	wallet    string
}

// NewGate creates a Gate with the given retention window.
// A non-positive window falls back to DefaultWindow.
func NewGate(window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{
		seen:   make(map[key]time.Time),
		window: window,
		now:    time.Now,
	}
}

// ShouldAlert reports whether this (signature, wallet) pair has not been
// alerted within the retention window, marking it as seen when it returns
// true. Check and mark are a single critical section: a duplicate arriving
// concurrently with the original cannot both pass.
func (g *Gate) ShouldAlert(signature, wallet string) bool {
	k := key{signature: signature, wallet: wallet}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.calls%evictEvery == 0 {
		g.evictLocked(now)
	}

	if at, ok := g.seen[k]; ok && now.Sub(at) < g.window {
		return false
	}
	g.seen[k] = now
	return true
}

// Len returns the number of remembered entries, expired included.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// evictLocked drops entries older than the window. Callers hold g.mu.
func (g *Gate) evictLocked(now time.Time) {
	for k, at := range g.seen {
		if now.Sub(at) >= g.window {
			delete(g.seen, k)
		}
	}
}
