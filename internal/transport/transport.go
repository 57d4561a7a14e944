// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport provides the blocking byte sources a sensor module
// session reads from: a TCP server accepting one client, a UDP socket,
// and a Bluetooth RFCOMM client (native socket or bound serial TTY).
package transport

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies how a sensor module is attached.
type Kind int

const (
	KindTCP Kind = iota
	KindUDP
	KindBluetooth
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindUDP:
		return "udp"
	case KindBluetooth:
		return "bt"
	default:
		return "unknown"
	}
}

// ParseKind maps a config value ("tcp", "udp", "bt"/"bluetooth") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return KindTCP, nil
	case "udp":
		return KindUDP, nil
	case "bt", "bluetooth", "rfcomm":
		return KindBluetooth, nil
	default:
		return 0, fmt.Errorf("unknown transport %q", s)
	}
}

// ErrDisconnected reports that the peer closed the connection. It ends a
// session without being an error condition.
var ErrDisconnected = errors.New("peer disconnected")

// ErrClosed reports that the transport was closed locally, usually to
// unblock a pending read when the session is being stopped.
var ErrClosed = errors.New("transport closed")

// Error is an I/O failure other than a clean close. It is fatal for the
// session that owns the transport.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport is the part every attachment has in common.
type Transport interface {
	Kind() Kind
	// Peer is the remote address once known, empty before that.
	Peer() string
	// Close may be called from any goroutine and more than once.
	Close() error
}

// Stream is a byte-stream transport (TCP, Bluetooth).
type Stream interface {
	Transport
	// RecvExact blocks until exactly n bytes are read. It returns
	// ErrDisconnected if the peer closes first.
	RecvExact(n int) ([]byte, error)
}

// Datagram is a message transport (UDP). Each call returns one datagram.
type Datagram interface {
	Transport
	RecvDatagram() ([]byte, error)
}
