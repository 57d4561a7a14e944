// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package acquisition

import "fmt"

// State is the position of a session in its acquisition lifecycle.
type State int

const (
	StateWarmup State = iota
	StateSynchronizing
	StateStreaming
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateWarmup:
		return "warmup"
	case StateSynchronizing:
		return "synchronizing"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for st := StateWarmup; st <= StateTerminated; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Status is the link status reported to consumers. Warmup counts as
// Connecting: the module is attached but its frames are not trusted yet.
type Status int

const (
	StatusConnecting Status = iota
	StatusSynchronizing
	StatusStreaming
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusSynchronizing:
		return "synchronizing"
	case StatusStreaming:
		return "streaming"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for st := StatusConnecting; st <= StatusDisconnected; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

func statusOf(s State) Status {
	switch s {
	case StateSynchronizing:
		return StatusSynchronizing
	case StateStreaming:
		return StatusStreaming
	case StateTerminated:
		return StatusDisconnected
	default:
		return StatusConnecting
	}
}
