// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
)

const defaultReadBuffer = 4 * 1024

// stream adapts any io.ReadCloser (socket, RFCOMM fd, serial TTY) to the
// Stream contract.
type stream struct {
	kind Kind
	peer string
	rc   io.ReadCloser
	r    *bufio.Reader

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newStream(kind Kind, peer string, rc io.ReadCloser, bufSize int) *stream {
	if bufSize <= 0 {
		bufSize = defaultReadBuffer
	}
	return &stream{
		kind: kind,
		peer: peer,
		rc:   rc,
		r:    bufio.NewReaderSize(rc, bufSize),
	}
}

func (s *stream) Kind() Kind   { return s.kind }
func (s *stream) Peer() string { return s.peer }

func (s *stream) RecvExact(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("recv_exact: invalid length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, s.classify("recv", err)
	}
	return buf, nil
}

// ReadByte lets the frame reader scan for delimiters without allocating
// per byte. Semantics match RecvExact(1).
func (s *stream) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, s.classify("recv", err)
	}
	return b, nil
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.rc.Close()
	})
	return s.closeErr
}

func (s *stream) classify(op string, err error) error {
	switch {
	case s.closed.Load(), errors.Is(err, net.ErrClosed), errors.Is(err, os.ErrClosed):
		return ErrClosed
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrDisconnected
	default:
		return &Error{Op: op, Kind: s.kind, Err: err}
	}
}
