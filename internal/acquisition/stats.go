// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package acquisition

import "sync/atomic"

// Stats counts what a session has seen. A high DecodeErrors to Frames
// ratio usually means the device is configured with the wrong schema.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Samples      uint64 `json:"samples"`
	DecodeErrors uint64 `json:"decode_errors"`
	FrameErrors  uint64 `json:"frame_errors"`
}

// DecodeErrorRatio is DecodeErrors / Frames, or 0 before any frame.
func (s Stats) DecodeErrorRatio() float64 {
	if s.Frames == 0 {
		return 0
	}
	return float64(s.DecodeErrors) / float64(s.Frames)
}

type counters struct {
	frames       atomic.Uint64
	samples      atomic.Uint64
	decodeErrors atomic.Uint64
	frameErrors  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Frames:       c.frames.Load(),
		Samples:      c.samples.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		FrameErrors:  c.frameErrors.Load(),
	}
}
