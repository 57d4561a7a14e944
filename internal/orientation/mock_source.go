// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package orientation

import (
	"math"
)

// MockPose is the scripted attitude t seconds into a mock run.
func MockPose(t float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(t),
		Pitch: 15 * math.Cos(t*0.7),
		Yaw:   math.Mod(t*30, 360),
	}
}

// MockIMU returns what a level-mounted module would measure at MockPose(t):
// the gravity vector in the accelerometer unit given by gravity, and body
// rates in rad/s using the same sign conventions as ComplementaryFilter.
func MockIMU(t, gravity float64) (accel, gyro [3]float64) {
	p := MockPose(t)
	roll := p.Roll / radToDeg
	pitch := p.Pitch / radToDeg

	accel[0] = gravity * math.Sin(pitch) * math.Cos(roll)
	accel[1] = gravity * math.Sin(roll) * math.Cos(pitch)
	accel[2] = gravity * math.Cos(roll) * math.Cos(pitch)

	rollRate := 20 * math.Cos(t)
	pitchRate := -15 * 0.7 * math.Sin(t*0.7)
	gyro[0] = rollRate / radToDeg
	gyro[1] = -pitchRate / radToDeg
	gyro[2] = 30 / radToDeg
	return accel, gyro
}
