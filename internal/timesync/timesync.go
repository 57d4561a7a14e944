// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package timesync maps a module's free-running clock onto host wall
// time. The mapping is fixed by the first message of a session.
package timesync

import (
	"errors"
	"time"
)

var ErrNotAnchored = errors.New("timesync: not anchored")

// Reconciler holds one session's anchor. It is owned by a single
// session goroutine and is not safe for concurrent use.
type Reconciler struct {
	now func() time.Time

	anchored  bool
	reference float64 // host unix seconds at anchoring
	offset    float64 // device seconds at anchoring
}

func New() *Reconciler {
	return &Reconciler{now: time.Now}
}

// NewWithClock is for tests and replays that need a fixed host clock.
func NewWithClock(now func() time.Time) *Reconciler {
	return &Reconciler{now: now}
}

// Anchor records the host time and the device timestamp of the first
// message. Later calls are ignored and report false, so a device clock
// reset can never move the anchor.
func (r *Reconciler) Anchor(deviceTime float64) bool {
	if r.anchored {
		return false
	}
	r.reference = unixSeconds(r.now())
	r.offset = deviceTime
	r.anchored = true
	return true
}

// HostTime converts a device timestamp. If the device clock went
// backwards since anchoring the result goes backwards too.
func (r *Reconciler) HostTime(deviceTime float64) (float64, error) {
	if !r.anchored {
		return 0, ErrNotAnchored
	}
	return r.reference + deviceTime - r.offset, nil
}

func (r *Reconciler) Anchored() bool { return r.anchored }

// Reference and Offset are the anchor values, zero before anchoring.
func (r *Reconciler) Reference() float64 { return r.reference }
func (r *Reconciler) Offset() float64    { return r.offset }

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
