// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Config selects and parameterises one attachment.
type Config struct {
	Kind Kind

	// TCP/UDP: local bind host and port. Bluetooth: module address.
	Address string
	Port    int

	// Bluetooth only. A non-empty SerialDevice takes precedence over a
	// native RFCOMM socket.
	Channel      uint8
	SerialDevice string
	BaudRate     uint

	MaxDatagram int
	ReadBuffer  int
}

// Connect establishes the transport. For TCP it blocks until the module
// connects or ctx is cancelled.
func Connect(ctx context.Context, cfg Config) (Transport, error) {
	switch cfg.Kind {
	case KindTCP:
		srv, err := ListenTCP(hostPort(cfg.Address, cfg.Port), cfg.ReadBuffer)
		if err != nil {
			return nil, err
		}
		return srv.Accept(ctx)
	case KindUDP:
		return ListenUDP(hostPort(cfg.Address, cfg.Port), cfg.MaxDatagram)
	case KindBluetooth:
		if cfg.SerialDevice != "" {
			return OpenSerial(cfg.SerialDevice, cfg.BaudRate, cfg.ReadBuffer)
		}
		channel := cfg.Channel
		if channel == 0 {
			channel = 1
		}
		return DialRFCOMM(cfg.Address, channel, cfg.ReadBuffer)
	default:
		return nil, fmt.Errorf("unsupported transport kind %d", cfg.Kind)
	}
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
