// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session holds the samples of one acquisition session and writes
// them to disk when the session ends.
package session

import (
	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

// Buffer is the per-session sample store: an append-only series that is
// persisted at the end of the session, plus the display window fed from
// the same appends.
//
// Buffer itself belongs to the session goroutine. Only its window is safe
// to read from other goroutines.
type Buffer struct {
	series []imu.Sample
	window *DisplayWindow
}

func NewBuffer(window *DisplayWindow) *Buffer {
	if window == nil {
		window = NewDisplayWindow(DefaultWindowSize)
	}
	return &Buffer{window: window}
}

func (b *Buffer) Append(s imu.Sample) {
	b.series = append(b.series, s)
	b.window.Push(s)
}

func (b *Buffer) Len() int { return len(b.series) }

// Samples exposes the series without copying. Callers must not modify it.
func (b *Buffer) Samples() []imu.Sample { return b.series }

func (b *Buffer) Window() *DisplayWindow { return b.window }

// Flush writes the series to path as CSV and meta, when given, to the
// sidecar next to it. The series is cleared once both are written.
func (b *Buffer) Flush(path string, meta *Metadata) error {
	if err := WriteCSV(path, b.series); err != nil {
		return err
	}
	if meta != nil {
		meta.Samples = len(b.series)
		if err := WriteMetadata(SidecarPath(path), meta); err != nil {
			return err
		}
	}
	b.series = nil
	return nil
}
