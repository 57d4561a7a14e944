// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package framing

import (
	"errors"
	"fmt"
)

// Delimiter separates frames on the wire. Stuffing guarantees it never
// appears inside a frame.
const Delimiter byte = 0x00

// ErrEmptyFrame is returned for a zero-length frame (two adjacent
// delimiters). It is a decode failure like any other.
var ErrEmptyFrame = errors.New("empty frame")

// DecodeError wraps an unstuffing failure together with the raw bytes so
// the caller can log what was discarded.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cobs decode (%d bytes): %v", len(e.Raw), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Unstuff decodes a COBS frame without the trailing delimiter.
func Unstuff(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, &DecodeError{Raw: frame, Err: ErrEmptyFrame}
	}

	out := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); {
		code := frame[i]
		if code == 0 {
			return nil, &DecodeError{Raw: frame, Err: fmt.Errorf("invalid code 0x00 at offset %d", i)}
		}
		i++

		count := int(code) - 1
		if i+count > len(frame) {
			return nil, &DecodeError{Raw: frame, Err: fmt.Errorf("truncated group at offset %d", i-1)}
		}
		for _, b := range frame[i : i+count] {
			if b == 0 {
				return nil, &DecodeError{Raw: frame, Err: errors.New("delimiter inside frame")}
			}
		}

		out = append(out, frame[i:i+count]...)
		i += count

		if code != 0xFF && i < len(frame) {
			out = append(out, 0x00)
		}
	}

	return out, nil
}

// Stuff encodes payload so it contains no Delimiter. The delimiter
// itself is not appended.
func Stuff(payload []byte) []byte {
	out := make([]byte, 1, len(payload)+len(payload)/254+2)
	codeIdx := 0
	code := byte(1)

	for _, b := range payload {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// AppendFrame stuffs payload and appends it plus a delimiter to dst.
func AppendFrame(dst, payload []byte) []byte {
	dst = append(dst, Stuff(payload)...)
	return append(dst, Delimiter)
}
