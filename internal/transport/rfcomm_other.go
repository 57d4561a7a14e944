// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !linux

package transport

import "errors"

// DialRFCOMM is only available on linux. Elsewhere bind the module to a
// serial device and use OpenSerial instead.
func DialRFCOMM(addr string, channel uint8, bufSize int) (Stream, error) {
	return nil, &Error{Op: "dial", Kind: KindBluetooth, Err: errors.New("native RFCOMM sockets require linux; configure serial_device")}
}
