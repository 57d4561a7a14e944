// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"sync"

	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

// DefaultWindowSize is how many recent samples a display window keeps.
const DefaultWindowSize = 1000

// DisplayWindow is a fixed-capacity ring of the most recent samples of one
// session. The session goroutine pushes; any number of display consumers
// read copies through Snapshot.
type DisplayWindow struct {
	mu   sync.Mutex
	buf  []imu.Sample
	next int
	full bool
}

func NewDisplayWindow(capacity int) *DisplayWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &DisplayWindow{buf: make([]imu.Sample, capacity)}
}

// Push overwrites the oldest sample once the window is full.
func (w *DisplayWindow) Push(s imu.Sample) {
	w.mu.Lock()
	w.buf[w.next] = s
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}
	w.mu.Unlock()
}

// Snapshot returns the window contents, oldest first. The slice is a copy
// and stays valid after further pushes.
func (w *DisplayWindow) Snapshot() []imu.Sample {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.full {
		out := make([]imu.Sample, w.next)
		copy(out, w.buf[:w.next])
		return out
	}
	out := make([]imu.Sample, 0, len(w.buf))
	out = append(out, w.buf[w.next:]...)
	out = append(out, w.buf[:w.next]...)
	return out
}

// Latest returns the most recently pushed sample.
func (w *DisplayWindow) Latest() (imu.Sample, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.full && w.next == 0 {
		return imu.Sample{}, false
	}
	i := w.next - 1
	if i < 0 {
		i = len(w.buf) - 1
	}
	return w.buf[i], true
}

func (w *DisplayWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.full {
		return len(w.buf)
	}
	return w.next
}

func (w *DisplayWindow) Cap() int { return len(w.buf) }
