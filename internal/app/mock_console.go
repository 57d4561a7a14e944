// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"time"

	"github.com/kev-in-ta/CARISPAWProject/internal/orientation"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
)

// RunMockConsole prints the scripted attitude next to the readings a mock
// module derives from it, alongside what the complementary filter makes of
// those readings.
func RunMockConsole(schema protocol.Schema) error {
	filter := orientation.NewComplementaryFilter(schema.Gravity())
	start := time.Now()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for tick := range ticker.C {
		t := tick.Sub(start).Seconds()
		truth := orientation.MockPose(t)
		accel, gyro := orientation.MockIMU(t, schema.Gravity())
		est := filter.Update(t, accel, gyro, gyro[0])

		fmt.Printf(
			"ROLL=%6.2f (%6.2f)  PITCH=%6.2f (%6.2f)  acc=[%6.2f %6.2f %6.2f]  gyro=[%6.3f %6.3f %6.3f]\n",
			truth.Roll, est.Roll,
			truth.Pitch, est.Pitch,
			accel[0], accel[1], accel[2],
			gyro[0], gyro[1], gyro[2],
		)
	}
	return nil
}
