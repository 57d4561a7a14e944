// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// AppendFrameUnit encodes m the way the frame module firmware does. All
// scalar fields are written, including zeros, so no message is empty.
func AppendFrameUnit(b []byte, m *FrameUnit) []byte {
	b = appendFloat(b, 1, m.TimeStamp)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(m.SensorType)))
	for i, v := range m.Acc {
		b = appendFloat(b, protowire.Number(3+i), v)
	}
	for i, v := range m.Angular {
		b = appendFloat(b, protowire.Number(6+i), v)
	}
	for i, v := range m.Mag {
		b = appendFloat(b, protowire.Number(9+i), v)
	}
	b = appendFloat(b, 12, m.Heading)
	b = appendFloat(b, 13, m.Pitch)
	b = appendFloat(b, 14, m.Roll)
	b = appendFloat(b, 15, m.UltrasonicForward)
	b = appendFloat(b, 16, m.UltrasonicDownward)
	if m.Image != nil {
		b = protowire.AppendTag(b, 17, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Image.Data)
		b = protowire.AppendTag(b, 18, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Image.Height)))
		b = protowire.AppendTag(b, 19, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Image.Width)))
	}
	return b
}

// AppendWheelUnit encodes m behind its little-endian length prefix.
func AppendWheelUnit(b []byte, m *WheelUnit) []byte {
	var body []byte
	body = appendFloat(body, 1, m.TimeStamp)
	body = protowire.AppendTag(body, 2, protowire.VarintType)
	body = protowire.AppendVarint(body, protowire.EncodeBool(m.IsStamp))
	for i, v := range m.Acc {
		body = appendFloat(body, protowire.Number(3+i), v)
	}
	for i, v := range m.Angular {
		body = appendFloat(body, protowire.Number(6+i), v)
	}

	b = binary.LittleEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}

// Encode serializes msg in the wire form Decode expects for its schema.
func Encode(msg Message) []byte {
	switch m := msg.(type) {
	case *FrameUnit:
		return AppendFrameUnit(nil, m)
	case *WheelUnit:
		return AppendWheelUnit(nil, m)
	default:
		return nil
	}
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}
