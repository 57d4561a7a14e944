package orientation

import (
	"math"
)

const (
	// DefaultAlpha weights gyro integration against accelerometer tilt.
	DefaultAlpha = 0.98

	// Accelerometer tilt is trusted only while |ax|+|ay|+|az| lies
	// strictly inside this band, in multiples of g.
	DefaultMinG = 0.5
	DefaultMaxG = 2.0

	radToDeg = 180.0 / math.Pi
)

// Pose is the estimated attitude of one module.
// Angles are in degrees; Yaw carries the module's heading.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// AccelTilt computes roll and pitch in degrees from the gravity vector:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(ax, az)
func AccelTilt(ax, ay, az float64) (roll, pitch float64) {
	return math.Atan2(ay, az) * radToDeg, math.Atan2(ax, az) * radToDeg
}

// ComplementaryFilter estimates pitch and roll from one IMU stream. It
// keeps state for the lifetime of a session and is not safe for
// concurrent use.
type ComplementaryFilter struct {
	Alpha float64
	// Gravity is one g in the accelerometer's unit (9.80665 for m/s², 1
	// for g).
	Gravity float64
	MinG    float64
	MaxG    float64

	roll  float64
	pitch float64

	lastTime float64
	primed   bool
}

func NewComplementaryFilter(gravity float64) *ComplementaryFilter {
	return &ComplementaryFilter{
		Alpha:   DefaultAlpha,
		Gravity: gravity,
		MinG:    DefaultMinG,
		MaxG:    DefaultMaxG,
	}
}

// Update folds in one sample taken at t seconds. accel is in the
// filter's Gravity unit, gyro in rad/s. heading is passed through as
// Yaw. The first sample only primes the clock: there is no dt yet, so
// the returned pose is the initial zero attitude.
func (f *ComplementaryFilter) Update(t float64, accel, gyro [3]float64, heading float64) Pose {
	if !f.primed {
		f.lastTime = t
		f.primed = true
		return Pose{Roll: f.roll, Pitch: f.pitch, Yaw: heading}
	}

	dt := t - f.lastTime
	f.lastTime = t

	f.roll += gyro[0] * dt * radToDeg
	f.pitch -= gyro[1] * dt * radToDeg

	magnitude := math.Abs(accel[0]) + math.Abs(accel[1]) + math.Abs(accel[2])
	if magnitude > f.MinG*f.Gravity && magnitude < f.MaxG*f.Gravity {
		rollAcc, pitchAcc := AccelTilt(accel[0], accel[1], accel[2])
		f.roll = f.roll*f.Alpha + rollAcc*(1-f.Alpha)
		f.pitch = f.pitch*f.Alpha + pitchAcc*(1-f.Alpha)
	}

	return Pose{Roll: f.roll, Pitch: f.pitch, Yaw: heading}
}

// Pose returns the current estimate without advancing the filter.
func (f *ComplementaryFilter) Pose() Pose {
	return Pose{Roll: f.roll, Pitch: f.pitch}
}
