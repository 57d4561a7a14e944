// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

// Columns is the header row of every session CSV, in file order.
var Columns = []string{
	"HOST TIME (s)",
	"ACCELEROMETER X (m/s²)",
	"ACCELEROMETER Y (m/s²)",
	"ACCELEROMETER Z (m/s²)",
	"GYROSCOPE X (rad/s)",
	"GYROSCOPE Y (rad/s)",
	"GYROSCOPE Z (rad/s)",
	"HEADING (deg)",
	"PITCH (deg)",
	"ROLL (deg)",
	"Time since start in ms ",
	"YYYY-MO-DD HH-MI-SS_SSS",
}

// PersistenceError reports a session that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist session to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Metadata is written as TOML next to each CSV.
type Metadata struct {
	SessionID string `toml:"session_id"`
	Device    string `toml:"device"`
	Transport string `toml:"transport"`
	Schema    string `toml:"schema"`
	Peer      string `toml:"peer"`

	ReferenceHostTime float64 `toml:"reference_host_time"`
	DeviceTimeOffset  float64 `toml:"device_time_offset"`

	Frames       uint64 `toml:"frames"`
	Samples      int    `toml:"samples"`
	DecodeErrors uint64 `toml:"decode_errors"`
	FrameErrors  uint64 `toml:"frame_errors"`

	Started time.Time `toml:"started"`
	Ended   time.Time `toml:"ended"`
}

// FileName builds the CSV path for a session of device started at start.
func FileName(dir, device string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s %s.csv", start.Format("2006-01-02 15.04.05"), device))
}

// SidecarPath is where the metadata for the CSV at path goes.
func SidecarPath(path string) string { return path + ".toml" }

// WriteCSV writes samples with the Columns header. Elapsed time is measured
// from the first sample.
func WriteCSV(path string, samples []imu.Sample) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	bw := bufio.NewWriterSize(f, 256*1024)
	cw := csv.NewWriter(bw)
	if err := cw.Write(Columns); err != nil {
		f.Close()
		return &PersistenceError{Path: path, Err: err}
	}

	var start float64
	if len(samples) > 0 {
		start = samples[0].HostTime
	}
	row := make([]string, len(Columns))
	for _, s := range samples {
		row[0] = formatFloat(s.HostTime)
		for i := 0; i < 3; i++ {
			row[1+i] = formatFloat(s.Accel[i])
			row[4+i] = formatFloat(s.Gyro[i])
		}
		row[7] = formatFloat(s.Heading)
		row[8] = formatFloat(s.Pitch)
		row[9] = formatFloat(s.Roll)
		row[10] = formatFloat((s.HostTime - start) * 1000)
		row[11] = FormatTimestamp(s.HostTime)
		if err := cw.Write(row); err != nil {
			f.Close()
			return &PersistenceError{Path: path, Err: err}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return &PersistenceError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return &PersistenceError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

// FormatTimestamp renders unix seconds as local "YYYY-MM-DD HH:MM:SS:mmm".
func FormatTimestamp(unix float64) string {
	sec, frac := math.Modf(unix)
	ms := int64(math.Round(frac * 1000))
	if ms == 1000 {
		sec++
		ms = 0
	}
	t := time.Unix(int64(sec), ms*int64(time.Millisecond))
	return fmt.Sprintf("%s:%03d", t.Format("2006-01-02 15:04:05"), ms)
}

// WriteMetadata marshals meta as TOML to path.
func WriteMetadata(path string, meta *Metadata) error {
	data, err := toml.Marshal(meta)
	if err != nil {
		return &PersistenceError{Path: path, Err: fmt.Errorf("marshal metadata: %w", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

// ReadMetadata loads a sidecar written by WriteMetadata.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &meta, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
