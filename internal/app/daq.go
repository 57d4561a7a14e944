package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
	"github.com/kev-in-ta/CARISPAWProject/internal/config"
)

// DAQOptions are the command-line switches of cmd/daq.
type DAQOptions struct {
	TUI bool
}

// SessionConfig builds the acquisition settings for one configured device.
func SessionConfig(cfg *config.Config, d config.Device) acquisition.Config {
	return acquisition.Config{
		Name:         d.Name,
		Transport:    d.TransportConfig(cfg),
		Schema:       d.SchemaKind(),
		WarmupFrames: d.WarmupFrames(cfg.WarmupFrames),
		RateInterval: cfg.RateReportInterval,
		DataDir:      cfg.DataDir,
		WindowSize:   cfg.DisplayWindowSize,
	}
}

// NewManager creates one session per enabled device.
func NewManager(cfg *config.Config, devices []config.Device, observer acquisition.Observer) (*acquisition.Manager, error) {
	m := acquisition.NewManager()
	for _, d := range devices {
		if !d.IsEnabled() {
			log.Printf("daq: device %s disabled, skipping", d.Name)
			continue
		}
		var opts []acquisition.Option
		if observer != nil {
			opts = append(opts, acquisition.WithObserver(observer))
		}
		s := acquisition.NewSession(SessionConfig(cfg, d), opts...)
		if err := m.Add(s); err != nil {
			return nil, err
		}
		log.Printf("daq: device %s over %s, %s schema, session %s", d.Name, d.Kind(), d.SchemaKind(), s.ID)
	}
	if len(m.Sessions()) == 0 {
		return nil, fmt.Errorf("no enabled devices in %s", cfg.DevicesFile)
	}
	return m, nil
}

// RunDAQ acquires from every configured device until all of them have
// disconnected or the process is interrupted. Every session flushes its
// samples to DATA_DIR on the way out.
func RunDAQ(opts DAQOptions) error {
	cfg := config.Get()

	devices, err := config.LoadDevices(cfg.DevicesFile)
	if err != nil {
		return err
	}

	if opts.TUI {
		// the dashboard owns the terminal
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}
		f, err := tea.LogToFile(filepath.Join(cfg.DataDir, "daq.log"), "")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	}

	var observers acquisition.Observers
	var publisher *Publisher
	if cfg.MQTTEnabled {
		client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDAQ)
		if err != nil {
			// acquisition does not depend on the broker
			log.Printf("daq: %v; continuing without MQTT", err)
		} else {
			defer client.Disconnect(250)
			publisher = NewPublisher(cfg.MQTTTopicPrefix, MQTTSink(client, time.Second), DefaultQueueSize)
			observers = append(observers, publisher)
		}
	}

	manager, err := NewManager(cfg, devices, observers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	// sidecars (web, dashboard) end when acquisition ends
	sideCtx, stopSide := context.WithCancel(gctx)
	defer stopSide()

	g.Go(func() error {
		defer stopSide()
		return manager.Run(gctx)
	})

	if cfg.WebServerPort > 0 {
		web := NewWebServer(manager, time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond)
		g.Go(func() error {
			return web.Run(sideCtx, fmt.Sprintf(":%d", cfg.WebServerPort))
		})
	}

	if opts.TUI {
		g.Go(func() error {
			return RunDashboard(sideCtx, manager, stop)
		})
	}

	log.Printf("daq: acquiring from %d device(s), Ctrl+C to stop", len(manager.Sessions()))
	err = g.Wait()

	if publisher != nil {
		publisher.Close()
		if n := publisher.Dropped(); n > 0 {
			log.Printf("daq: %d MQTT events dropped", n)
		}
	}
	for _, info := range manager.Infos() {
		log.Printf("daq: %s: %d frames, %d samples, %d decode errors, %d frame errors -> %s",
			info.Name, info.Stats.Frames, info.Stats.Samples, info.Stats.DecodeErrors, info.Stats.FrameErrors, info.Path)
	}
	return err
}
