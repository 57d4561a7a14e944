// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package acquisition

import (
	"periph.io/x/conn/v3/physic"

	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

// RateReport is emitted every rate interval while streaming.
type RateReport struct {
	Device  string           `json:"device"`
	Samples int              `json:"samples"`
	Hz      float64          `json:"hz"`
	Rate    physic.Frequency `json:"-"`
}

// Observer receives session events on the session goroutine. Implementations
// must not block; anything slow belongs behind a queue.
type Observer interface {
	OnStatus(device string, status Status)
	OnSample(device string, s imu.Sample)
	OnRate(r RateReport)
}

// Observers fans events out to each element in order.
type Observers []Observer

func (o Observers) OnStatus(device string, status Status) {
	for _, x := range o {
		x.OnStatus(device, status)
	}
}

func (o Observers) OnSample(device string, s imu.Sample) {
	for _, x := range o {
		x.OnSample(device, s)
	}
}

func (o Observers) OnRate(r RateReport) {
	for _, x := range o {
		x.OnRate(r)
	}
}

type nopObserver struct{}

func (nopObserver) OnStatus(string, Status)     {}
func (nopObserver) OnSample(string, imu.Sample) {}
func (nopObserver) OnRate(RateReport)           {}
