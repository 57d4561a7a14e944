// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol decodes the two protobuf records the CARIS modules
// send: frameUnit from the Raspberry Pi frame module and wheelUnit from
// the Teensy wheel modules.
package protocol

import (
	"fmt"
	"strings"
)

// Schema selects which record a stream carries. It is fixed per device.
type Schema int

const (
	SchemaFrame Schema = iota
	SchemaWheel
)

func (s Schema) String() string {
	switch s {
	case SchemaFrame:
		return "frame"
	case SchemaWheel:
		return "wheel"
	default:
		return "unknown"
	}
}

func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frame", "frameunit", "frame_unit":
		return SchemaFrame, nil
	case "wheel", "wheelunit", "wheel_unit":
		return SchemaWheel, nil
	default:
		return 0, fmt.Errorf("unknown schema %q", s)
	}
}

// SensorType mirrors frameUnit.Sensor.
type SensorType int32

const (
	SensorIMU9 SensorType = iota
	SensorIMU6
	SensorUSSDown
	SensorUSSForward
	SensorPiCam
)

func (s SensorType) String() string {
	switch s {
	case SensorIMU9:
		return "IMU_9"
	case SensorIMU6:
		return "IMU_6"
	case SensorUSSDown:
		return "USS_DOWN"
	case SensorUSSForward:
		return "USS_FORW"
	case SensorPiCam:
		return "PI_CAM"
	default:
		return fmt.Sprintf("Sensor(%d)", int32(s))
	}
}

// Inertial reports whether messages of this type carry accel/gyro data.
func (s SensorType) Inertial() bool {
	return s == SensorIMU9 || s == SensorIMU6
}

// Message is either a FrameUnit or a WheelUnit.
type Message interface {
	// DeviceTime is the module's timestamp in seconds.
	DeviceTime() float64
	isMessage()
}

// Image is the optional camera payload of a frame unit.
type Image struct {
	Data   []byte
	Height int32
	Width  int32
}

type FrameUnit struct {
	TimeStamp  float32
	SensorType SensorType

	Acc     [3]float32 // m/s²
	Angular [3]float32 // deg/s
	Mag     [3]float32

	Heading float32
	Pitch   float32
	Roll    float32

	UltrasonicForward  float32
	UltrasonicDownward float32

	Image *Image
}

func (m *FrameUnit) DeviceTime() float64 { return float64(m.TimeStamp) }
func (*FrameUnit) isMessage()            {}

type WheelUnit struct {
	TimeStamp float32
	IsStamp   bool

	Acc     [3]float32 // g
	Angular [3]float32 // rad/s
}

func (m *WheelUnit) DeviceTime() float64 { return float64(m.TimeStamp) }
func (*WheelUnit) isMessage()            {}
