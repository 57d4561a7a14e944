// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// lengthPrefixSize is the little-endian uint32 the wheel firmware writes
// in front of every wheelUnit.
const lengthPrefixSize = 4

// ErrEmptyPayload is returned for a payload with no fields at all.
var ErrEmptyPayload = errors.New("empty payload")

// DecodeError reports a payload that does not match the schema. Nothing
// of the message is returned alongside it.
type DecodeError struct {
	Schema Schema
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s unit: %v", e.Schema, e.Err)
	}
	return fmt.Sprintf("decode %s unit field %s: %v", e.Schema, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var frameFieldNames = map[protowire.Number]string{
	1: "time_stamp", 2: "sensorType",
	3: "acc_x", 4: "acc_y", 5: "acc_z",
	6: "angular_x", 7: "angular_y", 8: "angular_z",
	9: "mag_x", 10: "mag_y", 11: "mag_z",
	12: "heading", 13: "pitch", 14: "roll",
	15: "USensorForward", 16: "USensorDownward",
	17: "piCamImage", 18: "imageHeight", 19: "imageWidth",
}

var wheelFieldNames = map[protowire.Number]string{
	1: "time_stamp", 2: "isStamp",
	3: "acc_x", 4: "acc_y", 5: "acc_z",
	6: "angular_x", 7: "angular_y", 8: "angular_z",
}

// Decode dispatches on the stream's schema.
func Decode(schema Schema, payload []byte) (Message, error) {
	switch schema {
	case SchemaFrame:
		return DecodeFrameUnit(payload)
	case SchemaWheel:
		return DecodeWheelUnit(payload)
	default:
		return nil, &DecodeError{Schema: schema, Err: fmt.Errorf("unsupported schema %d", schema)}
	}
}

// DecodeFrameUnit parses a frameUnit. Unknown field numbers are skipped;
// a known field with the wrong wire type fails the whole message.
func DecodeFrameUnit(payload []byte) (*FrameUnit, error) {
	if len(payload) == 0 {
		return nil, &DecodeError{Schema: SchemaFrame, Err: ErrEmptyPayload}
	}

	var m FrameUnit
	var img Image
	haveImage := false

	err := walk(SchemaFrame, frameFieldNames, payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return float32Field(b, typ, &m.TimeStamp)
		case 2:
			var v int32
			n, err := int32Field(b, typ, &v)
			m.SensorType = SensorType(v)
			return n, err
		case 3, 4, 5:
			return float32Field(b, typ, &m.Acc[num-3])
		case 6, 7, 8:
			return float32Field(b, typ, &m.Angular[num-6])
		case 9, 10, 11:
			return float32Field(b, typ, &m.Mag[num-9])
		case 12:
			return float32Field(b, typ, &m.Heading)
		case 13:
			return float32Field(b, typ, &m.Pitch)
		case 14:
			return float32Field(b, typ, &m.Roll)
		case 15:
			return float32Field(b, typ, &m.UltrasonicForward)
		case 16:
			return float32Field(b, typ, &m.UltrasonicDownward)
		case 17:
			haveImage = true
			return bytesField(b, typ, &img.Data)
		case 18:
			haveImage = true
			return int32Field(b, typ, &img.Height)
		case 19:
			haveImage = true
			return int32Field(b, typ, &img.Width)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}

	if m.SensorType < SensorIMU9 || m.SensorType > SensorPiCam {
		return nil, &DecodeError{Schema: SchemaFrame, Field: "sensorType", Err: fmt.Errorf("unknown sensor type %d", int32(m.SensorType))}
	}
	if haveImage {
		m.Image = &img
	}
	return &m, nil
}

// DecodeWheelUnit parses a length-prefixed wheelUnit. The prefix is
// historical: a value that disagrees with the remaining length is
// tolerated.
func DecodeWheelUnit(payload []byte) (*WheelUnit, error) {
	if len(payload) < lengthPrefixSize {
		return nil, &DecodeError{Schema: SchemaWheel, Field: "length", Err: fmt.Errorf("%d bytes, need %d-byte length prefix", len(payload), lengthPrefixSize)}
	}
	body := payload[lengthPrefixSize:]
	if len(body) == 0 {
		return nil, &DecodeError{Schema: SchemaWheel, Err: ErrEmptyPayload}
	}

	var m WheelUnit
	err := walk(SchemaWheel, wheelFieldNames, body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return float32Field(b, typ, &m.TimeStamp)
		case 2:
			return boolField(b, typ, &m.IsStamp)
		case 3, 4, 5:
			return float32Field(b, typ, &m.Acc[num-3])
		case 6, 7, 8:
			return float32Field(b, typ, &m.Angular[num-6])
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// walk iterates over the fields of b. field returns how many bytes of the
// value it consumed, or 0 for a field number it does not know.
func walk(schema Schema, names map[protowire.Number]string, b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return &DecodeError{Schema: schema, Field: "tag", Err: protowire.ParseError(n)}
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			name := names[num]
			if name == "" {
				name = fmt.Sprintf("#%d", num)
			}
			return &DecodeError{Schema: schema, Field: name, Err: err}
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return &DecodeError{Schema: schema, Field: fmt.Sprintf("#%d", num), Err: protowire.ParseError(n)}
			}
		}
		b = b[n:]
	}
	return nil
}

func wireTypeError(got, want protowire.Type) error {
	return fmt.Errorf("wire type %d, want %d", got, want)
}

func float32Field(b []byte, typ protowire.Type, dst *float32) (int, error) {
	if typ != protowire.Fixed32Type {
		return 0, wireTypeError(typ, protowire.Fixed32Type)
	}
	v, n := protowire.ConsumeFixed32(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = math.Float32frombits(v)
	return n, nil
}

func int32Field(b []byte, typ protowire.Type, dst *int32) (int, error) {
	if typ != protowire.VarintType {
		return 0, wireTypeError(typ, protowire.VarintType)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = int32(v)
	return n, nil
}

func boolField(b []byte, typ protowire.Type, dst *bool) (int, error) {
	if typ != protowire.VarintType {
		return 0, wireTypeError(typ, protowire.VarintType)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = protowire.DecodeBool(v)
	return n, nil
}

func bytesField(b []byte, typ protowire.Type, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return 0, wireTypeError(typ, protowire.BytesType)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = append([]byte(nil), v...)
	return n, nil
}
