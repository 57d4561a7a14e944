// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"math"

	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Gravity is one g expressed in the accelerometer unit of the schema.
func (s Schema) Gravity() float64 {
	if s == SchemaWheel {
		return 1
	}
	return StandardGravity
}

// Normalize converts a decoded message into pipeline units. It reports
// false for frame units that carry no inertial data (ultrasonic, camera).
func Normalize(msg Message) (imu.Reading, bool) {
	switch m := msg.(type) {
	case *FrameUnit:
		if !m.SensorType.Inertial() {
			return imu.Reading{}, false
		}
		r := imu.Reading{DeviceTime: m.DeviceTime()}
		for i := 0; i < 3; i++ {
			r.Accel[i] = float64(m.Acc[i])
			r.Gyro[i] = float64(m.Angular[i]) * math.Pi / 180
			r.Mag[i] = float64(m.Mag[i])
		}
		r.HasMag = m.SensorType == SensorIMU9
		return r, true
	case *WheelUnit:
		r := imu.Reading{DeviceTime: m.DeviceTime()}
		for i := 0; i < 3; i++ {
			r.Accel[i] = float64(m.Acc[i])
			r.Gyro[i] = float64(m.Angular[i])
		}
		return r, true
	default:
		return imu.Reading{}, false
	}
}
