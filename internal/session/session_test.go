package session_test

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
	"github.com/kev-in-ta/CARISPAWProject/internal/session"
)

func sampleAt(t float64) imu.Sample {
	return imu.Sample{
		HostTime: t,
		Accel:    [3]float64{0.1, 0.2, 9.8},
		Gyro:     [3]float64{0.01, 0.02, 0.03},
		Heading:  1,
		Pitch:    2,
		Roll:     3,
	}
}

func TestDisplayWindowKeepsMostRecent(t *testing.T) {
	w := session.NewDisplayWindow(4)
	if _, ok := w.Latest(); ok {
		t.Fatalf("empty window reported a latest sample")
	}
	for i := 0; i < 6; i++ {
		w.Push(sampleAt(float64(i)))
	}

	snap := w.Snapshot()
	if len(snap) != 4 || w.Len() != 4 || w.Cap() != 4 {
		t.Fatalf("unexpected size %d/%d", len(snap), w.Len())
	}
	for i, s := range snap {
		if s.HostTime != float64(i+2) {
			t.Fatalf("snapshot[%d] = %v, want %v", i, s.HostTime, i+2)
		}
	}
	if last, _ := w.Latest(); last.HostTime != 5 {
		t.Fatalf("latest = %v", last.HostTime)
	}

	// snapshot is a copy
	w.Push(sampleAt(99))
	if snap[3].HostTime != 5 {
		t.Fatalf("snapshot changed after push")
	}
}

func TestDisplayWindowDefaultCapacity(t *testing.T) {
	if c := session.NewDisplayWindow(0).Cap(); c != session.DefaultWindowSize {
		t.Fatalf("cap = %d", c)
	}
}

func TestDisplayWindowConcurrentReaders(t *testing.T) {
	w := session.NewDisplayWindow(100)
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := w.Snapshot()
				for j := 1; j < len(snap); j++ {
					if snap[j].HostTime < snap[j-1].HostTime {
						t.Errorf("snapshot out of order")
						return
					}
				}
			}
		}()
	}
	for i := 0; i < 1000; i++ {
		w.Push(sampleAt(float64(i)))
	}
	wg.Wait()
}

func TestBufferFlushWritesColumnsAndClears(t *testing.T) {
	buf := session.NewBuffer(session.NewDisplayWindow(2))
	base := 1700000000.0
	for i := 0; i < 3; i++ {
		buf.Append(sampleAt(base + float64(i)*0.25))
	}
	if buf.Len() != 3 || buf.Window().Len() != 2 {
		t.Fatalf("unexpected lengths %d %d", buf.Len(), buf.Window().Len())
	}

	path := filepath.Join(t.TempDir(), "data", "run.csv")
	meta := &session.Metadata{SessionID: "abc", Device: "left", Started: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := buf.Flush(path, meta); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("series not cleared")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if strings.Join(rows[0], "|") != strings.Join(session.Columns, "|") {
		t.Fatalf("unexpected header %v", rows[0])
	}

	last := rows[3]
	if v, _ := strconv.ParseFloat(last[0], 64); v != base+0.5 {
		t.Fatalf("host time = %v", last[0])
	}
	if last[3] != "9.8" || last[7] != "1" || last[8] != "2" || last[9] != "3" {
		t.Fatalf("unexpected values %v", last)
	}
	if last[10] != "500" {
		t.Fatalf("elapsed = %q, want 500", last[10])
	}
	if last[11] != session.FormatTimestamp(base+0.5) {
		t.Fatalf("timestamp = %q", last[11])
	}

	got, err := session.ReadMetadata(session.SidecarPath(path))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if got.SessionID != "abc" || got.Samples != 3 || !got.Started.Equal(meta.Started) {
		t.Fatalf("unexpected metadata %+v", got)
	}
}

func TestFlushReportsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	buf := session.NewBuffer(nil)
	buf.Append(sampleAt(1))
	err := buf.Flush(filepath.Join(blocker, "run.csv"), nil)

	var perr *session.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if buf.Len() != 1 {
		t.Fatalf("series cleared after failed flush")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	got := session.FormatTimestamp(float64(ts.Unix()) + 0.042)
	if got != "2026-03-04 05:06:07:042" {
		t.Fatalf("got %q", got)
	}
}

func TestFileName(t *testing.T) {
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := session.FileName("out", "left", start)
	if got != filepath.Join("out", "2026-03-04 05.06.07 left.csv") {
		t.Fatalf("got %q", got)
	}
}
