// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package acquisition

import (
	"periph.io/x/conn/v3/physic"
)

// DefaultRateInterval is how many samples separate two rate reports.
const DefaultRateInterval = 500

// RateMeter reports the sample rate every interval samples, measured over
// the last interval+1 host timestamps.
type RateMeter struct {
	interval int
	ring     []float64
	n        int
}

func NewRateMeter(interval int) *RateMeter {
	if interval <= 0 {
		interval = DefaultRateInterval
	}
	return &RateMeter{interval: interval, ring: make([]float64, interval+1)}
}

// Add records the host time of one sample. When the series length reaches
// interval+1, 2·interval+1, ... it returns interval / (t[-1] - t[-interval-1]).
func (m *RateMeter) Add(t float64) (hz float64, ok bool) {
	size := len(m.ring)
	m.ring[m.n%size] = t
	m.n++
	if m.n < size || (m.n-1)%m.interval != 0 {
		return 0, false
	}
	span := t - m.ring[m.n%size]
	if span <= 0 {
		return 0, false
	}
	return float64(m.interval) / span, true
}

// Count is the number of timestamps seen.
func (m *RateMeter) Count() int { return m.n }

// Frequency converts a rate in Hz to periph's fixed-point representation.
func Frequency(hz float64) physic.Frequency {
	return physic.Frequency(hz * float64(physic.Hertz))
}
