// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultMaxDatagram is the largest frame a UDP module sends.
const DefaultMaxDatagram = 128

// UDPSocket receives one frame per datagram. There is no connection, so
// it never reports ErrDisconnected; only Close ends it.
type UDPSocket struct {
	conn    *net.UDPConn
	maxSize int

	peer      atomic.Value // string
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// ListenUDP binds addr. Datagrams longer than maxSize are truncated.
func ListenUDP(addr string, maxSize int) (*UDPSocket, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxDatagram
	}
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, &Error{Op: "resolve", Kind: KindUDP, Err: err}
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, &Error{Op: "listen", Kind: KindUDP, Err: err}
	}
	return &UDPSocket{conn: conn, maxSize: maxSize}, nil
}

func (u *UDPSocket) Kind() Kind { return KindUDP }

func (u *UDPSocket) LocalAddr() net.Addr { return u.conn.LocalAddr() }

func (u *UDPSocket) Peer() string {
	if p, ok := u.peer.Load().(string); ok {
		return p
	}
	return ""
}

func (u *UDPSocket) RecvDatagram() ([]byte, error) {
	buf := make([]byte, u.maxSize)
	n, raddr, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		if u.closed.Load() || errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, &Error{Op: "recv", Kind: KindUDP, Err: err}
	}
	if raddr != nil {
		u.peer.Store(raddr.String())
	}
	return buf[:n], nil
}

func (u *UDPSocket) Close() error {
	u.closeOnce.Do(func() {
		u.closed.Store(true)
		u.closeErr = u.conn.Close()
	})
	return u.closeErr
}
