// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package acquisition runs the per-device state machine: warm the link up,
// anchor device time, stream samples into a session buffer and persist the
// buffer when the link goes away.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kev-in-ta/CARISPAWProject/internal/framing"
	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
	"github.com/kev-in-ta/CARISPAWProject/internal/orientation"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/session"
	"github.com/kev-in-ta/CARISPAWProject/internal/timesync"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

// DefaultWarmupFrames is how many frames are discarded after connecting.
const DefaultWarmupFrames = 1000

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("acquisition: session already run")

// Config describes one device session.
type Config struct {
	Name      string
	Transport transport.Config
	Schema    protocol.Schema

	// WarmupFrames is taken literally; 0 goes straight to Synchronizing.
	WarmupFrames int
	RateInterval int

	DataDir    string
	WindowSize int
	MaxFrame   int
}

// Connector opens the transport for a session.
type Connector func(ctx context.Context, cfg transport.Config) (transport.Transport, error)

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithConnector replaces transport.Connect, mostly for tests.
func WithConnector(c Connector) Option {
	return func(s *Session) { s.connect = c }
}

// WithClock sets the host clock used for anchoring and file names.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one device's acquisition run. Run drives it on the calling
// goroutine; everything else is safe to call from other goroutines.
type Session struct {
	ID  string
	cfg Config

	observer Observer
	connect  Connector
	now      func() time.Time

	buf    *session.Buffer
	clock  *timesync.Reconciler
	filter *orientation.ComplementaryFilter
	rate   *RateMeter
	stats  counters

	stop     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	ran      bool
	state    State
	status   Status
	peer     string
	started  time.Time
	ended    time.Time
	lastRate float64
	anchor   [2]float64
	path     string
	flushErr error
}

func NewSession(cfg Config, opts ...Option) *Session {
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = DefaultRateInterval
	}
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = framing.DefaultMaxFrame
	}
	if cfg.WarmupFrames < 0 {
		cfg.WarmupFrames = 0
	}

	s := &Session{
		ID:       uuid.NewString(),
		cfg:      cfg,
		observer: nopObserver{},
		connect:  transport.Connect,
		now:      time.Now,
		stop:     make(chan struct{}),
		state:    StateWarmup,
		status:   StatusConnecting,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.buf = session.NewBuffer(session.NewDisplayWindow(cfg.WindowSize))
	s.clock = timesync.NewWithClock(s.now)
	s.filter = orientation.NewComplementaryFilter(cfg.Schema.Gravity())
	s.rate = NewRateMeter(cfg.RateInterval)
	return s
}

func (s *Session) Name() string { return s.cfg.Name }

func (s *Session) Config() Config { return s.cfg }

// Window is the live display window of this session.
func (s *Session) Window() *session.DisplayWindow { return s.buf.Window() }

func (s *Session) Stats() Stats { return s.stats.snapshot() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close asks the session to stop. A pending receive is unblocked by closing
// the transport; Run then flushes and returns.
func (s *Session) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// Run executes the whole lifecycle and returns once the session is
// Terminated. Disconnection and stop are normal ends and return nil. A
// fatal transport error or a failed flush is returned; the transport is
// closed in either case.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.ran = true
	s.started = s.now()
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.observer.OnStatus(s.cfg.Name, StatusConnecting)
	log.Printf("acquisition[%s]: connecting over %s", s.cfg.Name, s.cfg.Transport.Kind)

	t, err := s.connect(ctx, s.cfg.Transport)
	if err != nil {
		s.setState(StateTerminated)
		if ctx.Err() != nil {
			log.Printf("acquisition[%s]: stopped before a module connected", s.cfg.Name)
			return nil
		}
		return fmt.Errorf("acquisition[%s]: connect: %w", s.cfg.Name, err)
	}

	s.mu.Lock()
	s.peer = t.Peer()
	s.mu.Unlock()
	log.Printf("acquisition[%s]: connected to %q", s.cfg.Name, t.Peer())

	unblock := context.AfterFunc(ctx, func() { t.Close() })
	defer unblock()

	runErr := s.stream(ctx, t)
	return s.terminate(t, runErr)
}

func (s *Session) stream(ctx context.Context, t transport.Transport) error {
	r, err := framing.NewReader(t, framing.WithMaxFrame(s.cfg.MaxFrame))
	if err != nil {
		return err
	}

	// the first bytes of a stream are usually the tail of a frame
	if _, ok := t.(transport.Stream); ok {
		n, err := r.SkipToBoundary()
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("acquisition[%s]: skipped %d bytes to first frame boundary", s.cfg.Name, n)
		}
	}

	if s.cfg.WarmupFrames == 0 {
		s.setState(StateSynchronizing)
	}
	warmed := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		raw, err := r.ReadFrame()
		if err != nil {
			var ferr *framing.FrameError
			if errors.As(err, &ferr) {
				s.stats.frameErrors.Add(1)
				log.Printf("acquisition[%s]: %v", s.cfg.Name, ferr)
				continue
			}
			return err
		}
		s.stats.frames.Add(1)

		state := s.State()
		if state == StateWarmup {
			warmed++
			if warmed >= s.cfg.WarmupFrames {
				log.Printf("acquisition[%s]: warmup done after %d frames", s.cfg.Name, warmed)
				s.setState(StateSynchronizing)
			}
			continue
		}

		reading, ok := s.decode(raw)
		if !ok {
			continue
		}

		if state == StateSynchronizing {
			s.clock.Anchor(reading.DeviceTime)
			s.mu.Lock()
			s.anchor = [2]float64{s.clock.Reference(), s.clock.Offset()}
			s.mu.Unlock()
			log.Printf("acquisition[%s]: anchored device time %.3f to host time %.3f",
				s.cfg.Name, s.clock.Offset(), s.clock.Reference())
			s.setState(StateStreaming)
		}

		s.record(reading)
	}
}

// decode turns a raw frame into a reading. Failures are counted and logged
// with a dump of the frame; they never change state.
func (s *Session) decode(raw []byte) (imu.Reading, bool) {
	payload, err := framing.Unstuff(raw)
	if err != nil {
		s.discard(raw, err)
		return imu.Reading{}, false
	}
	msg, err := protocol.Decode(s.cfg.Schema, payload)
	if err != nil {
		s.discard(raw, err)
		return imu.Reading{}, false
	}
	return protocol.Normalize(msg)
}

func (s *Session) discard(raw []byte, err error) {
	s.stats.decodeErrors.Add(1)
	log.Printf("acquisition[%s]: discarded %d-byte frame: %v [% x]", s.cfg.Name, len(raw), err, raw)
}

func (s *Session) record(r imu.Reading) {
	host, err := s.clock.HostTime(r.DeviceTime)
	if err != nil {
		return
	}
	// heading is carried on the gyro X channel
	pose := s.filter.Update(host, r.Accel, r.Gyro, r.Gyro[0])

	sample := imu.Sample{
		HostTime: host,
		Accel:    r.Accel,
		Gyro:     r.Gyro,
		Mag:      r.Mag,
		HasMag:   r.HasMag,
		Heading:  pose.Yaw,
		Pitch:    pose.Pitch,
		Roll:     pose.Roll,
	}
	s.buf.Append(sample)
	s.stats.samples.Add(1)
	s.observer.OnSample(s.cfg.Name, sample)

	if hz, ok := s.rate.Add(host); ok {
		s.mu.Lock()
		s.lastRate = hz
		s.mu.Unlock()
		rep := RateReport{Device: s.cfg.Name, Samples: s.rate.Count(), Hz: hz, Rate: Frequency(hz)}
		log.Printf("acquisition[%s]: %d samples, rate %s", s.cfg.Name, rep.Samples, rep.Rate)
		s.observer.OnRate(rep)
	}
}

// terminate flushes the buffer once and closes the transport even when the
// flush fails.
func (s *Session) terminate(t transport.Transport, runErr error) error {
	switch {
	case runErr == nil, errors.Is(runErr, transport.ErrClosed):
		log.Printf("acquisition[%s]: stopped", s.cfg.Name)
		runErr = nil
	case errors.Is(runErr, transport.ErrDisconnected):
		log.Printf("acquisition[%s]: module disconnected", s.cfg.Name)
		runErr = nil
	default:
		log.Printf("acquisition[%s]: transport failed: %v", s.cfg.Name, runErr)
	}

	s.mu.Lock()
	s.ended = s.now()
	s.mu.Unlock()

	n := s.buf.Len()
	path := session.FileName(s.cfg.DataDir, s.cfg.Name, s.started)
	flushErr := s.buf.Flush(path, s.metadata())
	if flushErr != nil {
		log.Printf("acquisition[%s]: %v", s.cfg.Name, flushErr)
	} else {
		log.Printf("acquisition[%s]: wrote %d samples to %s", s.cfg.Name, n, path)
	}

	s.mu.Lock()
	s.path = path
	s.flushErr = flushErr
	s.mu.Unlock()

	if err := t.Close(); err != nil {
		log.Printf("acquisition[%s]: close: %v", s.cfg.Name, err)
	}
	s.setState(StateTerminated)

	return errors.Join(runErr, flushErr)
}

func (s *Session) metadata() *session.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats.snapshot()
	return &session.Metadata{
		SessionID:         s.ID,
		Device:            s.cfg.Name,
		Transport:         s.cfg.Transport.Kind.String(),
		Schema:            s.cfg.Schema.String(),
		Peer:              s.peer,
		ReferenceHostTime: s.anchor[0],
		DeviceTimeOffset:  s.anchor[1],
		Frames:            st.Frames,
		DecodeErrors:      st.DecodeErrors,
		FrameErrors:       st.FrameErrors,
		Started:           s.started,
		Ended:             s.ended,
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.status
	s.state = st
	s.status = statusOf(st)
	changed := prev != s.status
	status := s.status
	s.mu.Unlock()

	if changed {
		s.observer.OnStatus(s.cfg.Name, status)
	}
}

// Info is a point-in-time view of a session for APIs and dashboards.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Transport string    `json:"transport"`
	Schema    string    `json:"schema"`
	Peer      string    `json:"peer"`
	State     State     `json:"state"`
	Status    Status    `json:"status"`
	Stats     Stats     `json:"stats"`
	RateHz    float64   `json:"rate_hz"`
	Started   time.Time `json:"started"`

	ReferenceHostTime float64 `json:"reference_host_time"`
	DeviceTimeOffset  float64 `json:"device_time_offset"`

	// set once the session has terminated
	Path     string `json:"path,omitempty"`
	FlushErr string `json:"flush_error,omitempty"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:                s.ID,
		Name:              s.cfg.Name,
		Transport:         s.cfg.Transport.Kind.String(),
		Schema:            s.cfg.Schema.String(),
		Peer:              s.peer,
		State:             s.state,
		Status:            s.status,
		Stats:             s.stats.snapshot(),
		RateHz:            s.lastRate,
		Started:           s.started,
		ReferenceHostTime: s.anchor[0],
		DeviceTimeOffset:  s.anchor[1],
		Path:              s.path,
	}
	if s.flushErr != nil {
		info.FlushErr = s.flushErr.Error()
	}
	return info
}
