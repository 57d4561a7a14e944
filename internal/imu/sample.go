package imu

// Reading is one decoded inertial message in pipeline units: accel in
// the module's native unit (m/s² for the frame unit, g for the wheel
// unit), gyro in rad/s.
type Reading struct {
	DeviceTime float64 // seconds on the module's own clock

	Accel [3]float64
	Gyro  [3]float64

	Mag    [3]float64
	HasMag bool
}

// Sample is a Reading placed on the host clock with its estimated
// orientation. Samples are never modified after they are appended to a
// session.
type Sample struct {
	HostTime float64 `json:"host_time"` // unix seconds

	Accel [3]float64 `json:"accel"`
	Gyro  [3]float64 `json:"gyro"` // rad/s

	Mag    [3]float64 `json:"mag"`
	HasMag bool       `json:"has_mag"`

	Heading float64 `json:"heading"` // deg
	Pitch   float64 `json:"pitch"`   // deg
	Roll    float64 `json:"roll"`    // deg
}
