// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"errors"
	"net"
)

// TCPServer listens for exactly one sensor module. The module dials in,
// so the host is the server side of the connection.
type TCPServer struct {
	ln      net.Listener
	bufSize int
}

// ListenTCP binds addr. Use Addr to learn the port when addr ends in ":0".
func ListenTCP(addr string, bufSize int) (*TCPServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &Error{Op: "listen", Kind: KindTCP, Err: err}
	}
	return &TCPServer{ln: ln, bufSize: bufSize}, nil
}

func (s *TCPServer) Addr() net.Addr { return s.ln.Addr() }

// Accept waits for the single client and stops listening once it has
// one. Cancelling ctx aborts the wait.
func (s *TCPServer) Accept(ctx context.Context) (Stream, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.ln.Close() })
	defer stop()
	defer s.ln.Close()

	conn, err := s.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrClosed
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, &Error{Op: "accept", Kind: KindTCP, Err: err}
	}
	return newStream(KindTCP, conn.RemoteAddr().String(), conn, s.bufSize), nil
}

// Close stops listening. It does not affect an already accepted stream.
func (s *TCPServer) Close() error { return s.ln.Close() }
