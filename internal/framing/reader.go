// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package framing turns a transport into a sequence of raw frames and
// undoes the COBS stuffing inside each frame.
package framing

import (
	"fmt"
	"io"

	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

// DefaultMaxFrame bounds how many bytes are buffered while waiting for a
// delimiter. Frame-unit messages can carry a camera image.
const DefaultMaxFrame = 1 << 20

// FrameError reports a frame whose boundary could not be trusted. The
// bytes up to the next delimiter were discarded; the stream stays usable.
type FrameError struct {
	Discarded int
	Reason    string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame error: %s (%d bytes discarded)", e.Reason, e.Discarded)
}

// Reader yields raw (still stuffed) frames.
type Reader interface {
	// SkipToBoundary discards bytes up to and including the next
	// delimiter and returns how many were dropped. It is a no-op on
	// datagram transports.
	SkipToBoundary() (int, error)
	// ReadFrame returns the next frame without its delimiter. Transport
	// errors (ErrDisconnected, ErrClosed, *transport.Error) pass through
	// unchanged.
	ReadFrame() ([]byte, error)
}

type Option func(*options)

type options struct {
	maxFrame int
}

// WithMaxFrame overrides DefaultMaxFrame for stream transports.
func WithMaxFrame(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFrame = n
		}
	}
}

// NewReader picks the framing strategy once, from the transport type:
// delimiter scanning for streams, one frame per datagram otherwise.
func NewReader(t transport.Transport, opts ...Option) (Reader, error) {
	o := options{maxFrame: DefaultMaxFrame}
	for _, opt := range opts {
		opt(&o)
	}

	switch tr := t.(type) {
	case transport.Datagram:
		return &datagramReader{t: tr}, nil
	case transport.Stream:
		r := &streamReader{maxFrame: o.maxFrame}
		if br, ok := tr.(io.ByteReader); ok {
			r.next = br.ReadByte
		} else {
			r.next = func() (byte, error) {
				b, err := tr.RecvExact(1)
				if err != nil {
					return 0, err
				}
				return b[0], nil
			}
		}
		return r, nil
	default:
		return nil, fmt.Errorf("framing: unsupported transport %T", t)
	}
}

type streamReader struct {
	next     func() (byte, error)
	maxFrame int
	buf      []byte
}

func (r *streamReader) SkipToBoundary() (int, error) {
	skipped := 0
	for {
		b, err := r.next()
		if err != nil {
			return skipped, err
		}
		if b == Delimiter {
			return skipped, nil
		}
		skipped++
	}
}

func (r *streamReader) ReadFrame() ([]byte, error) {
	r.buf = r.buf[:0]
	for {
		b, err := r.next()
		if err != nil {
			return nil, err
		}
		if b == Delimiter {
			return append([]byte(nil), r.buf...), nil
		}
		if len(r.buf) >= r.maxFrame {
			n, err := r.SkipToBoundary()
			if err != nil {
				return nil, err
			}
			discarded := len(r.buf) + 1 + n
			r.buf = r.buf[:0]
			return nil, &FrameError{Discarded: discarded, Reason: fmt.Sprintf("no delimiter within %d bytes", r.maxFrame)}
		}
		r.buf = append(r.buf, b)
	}
}

type datagramReader struct {
	t transport.Datagram
}

func (r *datagramReader) SkipToBoundary() (int, error) { return 0, nil }

func (r *datagramReader) ReadFrame() ([]byte, error) {
	return r.t.RecvDatagram()
}
