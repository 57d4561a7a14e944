// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transporttest provides scripted in-memory transports for tests.
package transporttest

import (
	"sync"

	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

// Stream replays chunks as a byte stream. When the chunks run out it
// reports ErrDisconnected, or blocks until Close if HoldOpen is set.
type Stream struct {
	HoldOpen bool
	PeerAddr string

	mu     sync.Mutex
	chunks [][]byte
	closed chan struct{}
	once   sync.Once
	closes int
}

func NewStream(chunks ...[]byte) *Stream {
	return &Stream{chunks: chunks, closed: make(chan struct{})}
}

func (s *Stream) Kind() transport.Kind { return transport.KindTCP }
func (s *Stream) Peer() string         { return s.PeerAddr }

func (s *Stream) RecvExact(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		select {
		case <-s.closed:
			return nil, transport.ErrClosed
		default:
		}

		s.mu.Lock()
		if len(s.chunks) == 0 {
			s.mu.Unlock()
			if !s.HoldOpen {
				return nil, transport.ErrDisconnected
			}
			<-s.closed
			return nil, transport.ErrClosed
		}
		head := s.chunks[0]
		take := min(n-len(out), len(head))
		out = append(out, head[:take]...)
		if take == len(head) {
			s.chunks = s.chunks[1:]
		} else {
			s.chunks[0] = head[take:]
		}
		s.mu.Unlock()
	}
	return out, nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	s.once.Do(func() { close(s.closed) })
	return nil
}

// Closes reports how many times Close was called.
func (s *Stream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Datagrams replays one datagram per RecvDatagram call. When they run out
// it blocks until Close.
type Datagrams struct {
	mu     sync.Mutex
	queue  [][]byte
	closed chan struct{}
	once   sync.Once
}

func NewDatagrams(dgrams ...[]byte) *Datagrams {
	return &Datagrams{queue: dgrams, closed: make(chan struct{})}
}

func (d *Datagrams) Kind() transport.Kind { return transport.KindUDP }
func (d *Datagrams) Peer() string         { return "" }

func (d *Datagrams) RecvDatagram() ([]byte, error) {
	d.mu.Lock()
	if len(d.queue) > 0 {
		dg := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		return dg, nil
	}
	d.mu.Unlock()
	<-d.closed
	return nil, transport.ErrClosed
}

func (d *Datagrams) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}
