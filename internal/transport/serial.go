// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens a Bluetooth module that was bound to a TTY with
// `rfcomm bind` (e.g. /dev/rfcomm0). Stream semantics match DialRFCOMM.
func OpenSerial(device string, baud uint, bufSize int) (Stream, error) {
	if baud == 0 {
		baud = 115200
	}
	opts := serial.OpenOptions{
		PortName:              device,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, &Error{Op: "open", Kind: KindBluetooth, Err: fmt.Errorf("%s: %w", device, err)}
	}
	return newStream(KindBluetooth, device, port, bufSize), nil
}

// ParseBDAddr parses "98:D3:51:FD:AD:F5" into its six bytes, most
// significant first.
func ParseBDAddr(s string) ([6]byte, error) {
	var out [6]byte
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 6 {
		return out, fmt.Errorf("invalid bluetooth address %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil || len(p) != 2 {
			return out, fmt.Errorf("invalid bluetooth address %q", s)
		}
		out[i] = byte(v)
	}
	return out, nil
}
