// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux

package transport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DialRFCOMM connects to a Bluetooth module as an RFCOMM client.
func DialRFCOMM(addr string, channel uint8, bufSize int) (Stream, error) {
	bdaddr, err := ParseBDAddr(addr)
	if err != nil {
		return nil, &Error{Op: "dial", Kind: KindBluetooth, Err: err}
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, &Error{Op: "socket", Kind: KindBluetooth, Err: err}
	}

	// BlueZ stores the address little-endian.
	var sa unix.SockaddrRFCOMM
	for i := 0; i < 6; i++ {
		sa.Addr[i] = bdaddr[5-i]
	}
	sa.Channel = channel

	if err := unix.Connect(fd, &sa); err != nil {
		_ = unix.Close(fd)
		return nil, &Error{Op: "connect", Kind: KindBluetooth, Err: fmt.Errorf("%s ch %d: %w", addr, channel, err)}
	}

	// Non-blocking lets os.File use the runtime poller, so Close from
	// another goroutine unblocks a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, &Error{Op: "setnonblock", Kind: KindBluetooth, Err: err}
	}
	f := os.NewFile(uintptr(fd), "rfcomm:"+addr)
	return newStream(KindBluetooth, addr, f, bufSize), nil
}
