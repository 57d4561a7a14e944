package acquisition_test

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
	"github.com/kev-in-ta/CARISPAWProject/internal/framing"
	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/session"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport/transporttest"
)

var hostEpoch = time.Unix(1700000000, 0)

func fixedClock() time.Time { return hostEpoch }

func frameUnit(ts float32) []byte {
	return protocol.Encode(&protocol.FrameUnit{
		TimeStamp:  ts,
		SensorType: protocol.SensorIMU9,
		Acc:        [3]float32{0, 0, 9.81},
	})
}

// wire frames payloads the way a module does, starting on a boundary.
func wire(payloads ...[]byte) []byte {
	b := []byte{framing.Delimiter}
	for _, p := range payloads {
		b = framing.AppendFrame(b, p)
	}
	return b
}

func seq(n int, start float32) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = frameUnit(start + float32(i)*0.01)
	}
	return out
}

type recorder struct {
	mu       sync.Mutex
	statuses []acquisition.Status
	samples  []imu.Sample
	rates    []acquisition.RateReport
	onSample func(n int)
}

func (r *recorder) OnStatus(_ string, s acquisition.Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

func (r *recorder) OnSample(_ string, s imu.Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	n := len(r.samples)
	r.mu.Unlock()
	if r.onSample != nil {
		r.onSample(n)
	}
}

func (r *recorder) OnRate(rep acquisition.RateReport) {
	r.mu.Lock()
	r.rates = append(r.rates, rep)
	r.mu.Unlock()
}

func newSession(t *testing.T, tr transport.Transport, cfg acquisition.Config, obs acquisition.Observer) *acquisition.Session {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "frame"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	opts := []acquisition.Option{
		acquisition.WithClock(fixedClock),
		acquisition.WithConnector(func(context.Context, transport.Config) (transport.Transport, error) {
			return tr, nil
		}),
	}
	if obs != nil {
		opts = append(opts, acquisition.WithObserver(obs))
	}
	return acquisition.NewSession(cfg, opts...)
}

func readCSV(t *testing.T, dir string) [][]string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one CSV, found %v", matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestDisconnectFlushesOnce(t *testing.T) {
	frames := append(seq(3, 100), seq(10, 200)...)
	fake := transporttest.NewStream(wire(frames...))
	dir := t.TempDir()
	rec := &recorder{}

	s := newSession(t, fake, acquisition.Config{
		Schema:       protocol.SchemaFrame,
		WarmupFrames: 3,
		DataDir:      dir,
	}, rec)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("disconnect should end the session cleanly: %v", err)
	}
	if s.State() != acquisition.StateTerminated || s.Status() != acquisition.StatusDisconnected {
		t.Fatalf("unexpected end state %v/%v", s.State(), s.Status())
	}
	if fake.Closes() != 1 {
		t.Fatalf("transport closed %d times", fake.Closes())
	}

	st := s.Stats()
	if st.Frames != 13 || st.Samples != 10 || st.DecodeErrors != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if rows := readCSV(t, dir); len(rows) != 11 {
		t.Fatalf("got %d CSV rows, want header + 10", len(rows))
	}

	info := s.Info()
	meta, err := session.ReadMetadata(session.SidecarPath(info.Path))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if meta.Samples != 10 || meta.SessionID != s.ID || meta.DeviceTimeOffset != 200 {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	want := []acquisition.Status{
		acquisition.StatusConnecting,
		acquisition.StatusSynchronizing,
		acquisition.StatusStreaming,
		acquisition.StatusDisconnected,
	}
	if len(rec.statuses) != len(want) {
		t.Fatalf("statuses %v want %v", rec.statuses, want)
	}
	for i := range want {
		if rec.statuses[i] != want[i] {
			t.Fatalf("statuses %v want %v", rec.statuses, want)
		}
	}
}

func TestWarmupFramesAreNotDecoded(t *testing.T) {
	// garbage during warmup is not a decode error
	fake := transporttest.NewStream(wire([]byte("noise"), []byte{0xFF, 0xFF}, frameUnit(1)))
	s := newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame, WarmupFrames: 2}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.DecodeErrors != 0 || st.Samples != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCorruptedFrameIsSkipped(t *testing.T) {
	b := wire(frameUnit(1))
	b = append(b, 0x05, 0x01, framing.Delimiter) // truncated COBS group
	b = framing.AppendFrame(b, []byte{0xFF, 0xFF, 0xFF})
	b = append(b, framing.Delimiter) // empty frame
	b = framing.AppendFrame(b, frameUnit(1.01))

	fake := transporttest.NewStream(b)
	rec := &recorder{}
	s := newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame}, rec)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := s.Stats()
	if st.DecodeErrors != 3 || st.Samples != 2 || st.Frames != 5 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if len(rec.samples) != 2 {
		t.Fatalf("got %d samples", len(rec.samples))
	}
	if dt := rec.samples[1].HostTime - rec.samples[0].HostTime; math.Abs(dt-0.01) > 1e-4 {
		t.Fatalf("samples around the corrupt frames are not consecutive: dt=%v", dt)
	}
}

func TestDecodeErrorsBeforeAnchorKeepSynchronizing(t *testing.T) {
	fake := transporttest.NewStream(wire([]byte{0xFF, 0xFF}, frameUnit(7), frameUnit(7.5)))
	s := newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	info := s.Info()
	if info.DeviceTimeOffset != 7 {
		t.Fatalf("anchored on %v, want the first decodable frame", info.DeviceTimeOffset)
	}
	if info.ReferenceHostTime != float64(hostEpoch.Unix()) {
		t.Fatalf("reference host time %v", info.ReferenceHostTime)
	}
}

func TestNonInertialFramesAreCountedNotStored(t *testing.T) {
	uss := protocol.Encode(&protocol.FrameUnit{TimeStamp: 2, SensorType: protocol.SensorUSSDown, UltrasonicDownward: 30})
	fake := transporttest.NewStream(wire(frameUnit(1), uss, frameUnit(3)))
	s := newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Frames != 3 || st.Samples != 2 || st.DecodeErrors != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestRateReportAfter501Samples(t *testing.T) {
	fake := transporttest.NewStream(wire(seq(1001, 0)...))
	rec := &recorder{}
	s := newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame}, rec)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(rec.rates) != 2 {
		t.Fatalf("got %d rate reports, want 2", len(rec.rates))
	}
	first := rec.rates[0]
	if first.Samples != 501 {
		t.Fatalf("first report after %d samples", first.Samples)
	}
	want := 500 / (rec.samples[500].HostTime - rec.samples[0].HostTime)
	if math.Abs(first.Hz-want) > 1e-6 {
		t.Fatalf("rate %v want %v", first.Hz, want)
	}
	if math.Abs(first.Hz-100) > 0.1 {
		t.Fatalf("rate %v should be about 100 Hz", first.Hz)
	}
	if rec.rates[1].Samples != 1001 {
		t.Fatalf("second report after %d samples", rec.rates[1].Samples)
	}
	if s.Info().RateHz != rec.rates[1].Hz {
		t.Fatalf("info does not carry the last rate")
	}
}

func TestCloseStopsAndFlushes(t *testing.T) {
	fake := transporttest.NewStream(wire(seq(5, 0)...))
	fake.HoldOpen = true
	dir := t.TempDir()

	var s *acquisition.Session
	rec := &recorder{}
	rec.onSample = func(n int) {
		if n == 5 {
			s.Close()
		}
	}
	s = newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame, DataDir: dir}, rec)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop should end the session cleanly: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	if fake.Closes() == 0 {
		t.Fatal("transport not closed")
	}
	if rows := readCSV(t, dir); len(rows) != 6 {
		t.Fatalf("got %d CSV rows, want header + 5", len(rows))
	}
}

func TestFlushFailureStillClosesTransport(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	fake := transporttest.NewStream(wire(seq(2, 0)...))
	s := newSession(t, fake, acquisition.Config{Schema: protocol.SchemaFrame, DataDir: blocker}, nil)

	err := s.Run(context.Background())
	var perr *session.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if fake.Closes() != 1 {
		t.Fatalf("transport closed %d times", fake.Closes())
	}
	if s.State() != acquisition.StateTerminated {
		t.Fatalf("state %v", s.State())
	}
	if s.Info().FlushErr == "" {
		t.Fatal("flush error not reported")
	}
}

func TestUDPPathUsesDatagramsAsFrames(t *testing.T) {
	wheel := func(ts float32) []byte {
		return framing.Stuff(protocol.Encode(&protocol.WheelUnit{TimeStamp: ts, Acc: [3]float32{0, 0, 1}}))
	}
	dg := transporttest.NewDatagrams(wheel(0), nil, wheel(0.01), wheel(0.02))
	rec := &recorder{}
	rec.onSample = func(n int) {
		if n == 3 {
			dg.Close()
		}
	}
	s := newSession(t, dg, acquisition.Config{Name: "left", Schema: protocol.SchemaWheel}, rec)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Samples != 3 || st.DecodeErrors != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestRunTwice(t *testing.T) {
	s := newSession(t, transporttest.NewStream(), acquisition.Config{}, nil)
	_ = s.Run(context.Background())
	if err := s.Run(context.Background()); !errors.Is(err, acquisition.ErrAlreadyRun) {
		t.Fatalf("expected ErrAlreadyRun, got %v", err)
	}
}

func TestManagerStopsAllOnCancel(t *testing.T) {
	m := acquisition.NewManager()
	dir := t.TempDir()
	var fakes []*transporttest.Stream
	for _, name := range []string{"left", "right"} {
		fake := transporttest.NewStream(wire(seq(3, 0)...))
		fake.HoldOpen = true
		fakes = append(fakes, fake)
		if err := m.Add(newSession(t, fake, acquisition.Config{Name: name, Schema: protocol.SchemaFrame, DataDir: dir}, nil)); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Add(newSession(t, transporttest.NewStream(), acquisition.Config{Name: "left"}, nil)); err == nil {
		t.Fatal("duplicate device accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		all := true
		for _, info := range m.Infos() {
			if info.Stats.Samples < 3 {
				all = false
			}
		}
		if all {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sessions did not stream")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("manager returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	for _, f := range fakes {
		if f.Closes() == 0 {
			t.Fatal("transport left open")
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.csv"))
	if len(matches) != 2 {
		t.Fatalf("expected one CSV per device, got %v", matches)
	}
}

func TestRateMeter(t *testing.T) {
	m := acquisition.NewRateMeter(4)
	var got []float64
	for i := 0; i < 9; i++ {
		if hz, ok := m.Add(float64(i) * 0.5); ok {
			got = append(got, hz)
		}
	}
	// reports at 5 and 9 samples: 4 / (2.0 - 0.0), 4 / (4.0 - 2.0)
	if len(got) != 2 || got[0] != 2 || got[1] != 2 {
		t.Fatalf("unexpected reports %v", got)
	}
	if f := acquisition.Frequency(100); f.String() != "100Hz" {
		t.Fatalf("frequency %s", f)
	}
}
