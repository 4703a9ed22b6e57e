// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peernet

import (
	"sync"
	"time"
)

// Liveness tracks the last time each peer address was heard from, driving
// the 20s alive-broadcast / 60s reaper timers of spec.md §4.5. It
// corresponds to the spec's AN_mutex-guarded liveness table.
type Liveness struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewLiveness returns an empty liveness table.
func NewLiveness() *Liveness {
	return &Liveness{lastSeen: make(map[string]time.Time)}
}

// Touch records that addr was just heard from.
func (l *Liveness) Touch(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSeen[addr] = time.Now()
}

// Reap removes and returns every address whose last touch exceeds
// timeout.
func (l *Liveness) Reap(timeout time.Duration) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	var stale []string
	for addr, last := range l.lastSeen {
		if now.Sub(last) > timeout {
			stale = append(stale, addr)
		}
	}
	for _, addr := range stale {
		delete(l.lastSeen, addr)
	}
	return stale
}

// Known reports whether addr is currently tracked as alive.
func (l *Liveness) Known(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.lastSeen[addr]
	return ok
}
