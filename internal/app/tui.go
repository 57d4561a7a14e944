package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
)

const dashboardRefresh = 100 * time.Millisecond

type dashboardTick time.Time

type dashboardRow struct {
	info   acquisition.Info
	latest string
}

// dashboard is the bubbletea model behind `daq -tui`.
type dashboard struct {
	manager *acquisition.Manager
	stop    func()
	rows    []dashboardRow
	started time.Time
	now     time.Time
}

func newDashboard(manager *acquisition.Manager, stop func()) dashboard {
	now := time.Now()
	d := dashboard{manager: manager, stop: stop, started: now, now: now}
	d.refresh()
	return d
}

func dashboardTickCmd() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg { return dashboardTick(t) })
}

func (d dashboard) Init() tea.Cmd { return dashboardTickCmd() }

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if d.stop != nil {
				d.stop()
			}
			return d, tea.Quit
		}
	case dashboardTick:
		d.now = time.Time(msg)
		d.refresh()
		return d, dashboardTickCmd()
	}
	return d, nil
}

func (d *dashboard) refresh() {
	sessions := d.manager.Sessions()
	d.rows = d.rows[:0]
	for _, s := range sessions {
		row := dashboardRow{info: s.Info(), latest: "-"}
		if last, ok := s.Window().Latest(); ok {
			row.latest = fmt.Sprintf("H %8.3f  P %7.2f  R %7.2f", last.Heading, last.Pitch, last.Roll)
		}
		d.rows = append(d.rows, row)
	}
}

func (d dashboard) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CARIS PAW acquisition  %s elapsed\n\n", d.now.Sub(d.started).Truncate(time.Second))
	fmt.Fprintf(&b, "%-10s %-5s %-14s %9s %9s %8s %8s  %s\n",
		"DEVICE", "LINK", "STATUS", "FRAMES", "SAMPLES", "DECERR", "RATE", "LATEST")
	for _, r := range d.rows {
		st := r.info.Stats
		fmt.Fprintf(&b, "%-10s %-5s %-14s %9d %9d %7.1f%% %6.1fHz  %s\n",
			r.info.Name, r.info.Transport, r.info.Status, st.Frames, st.Samples,
			100*st.DecodeErrorRatio(), r.info.RateHz, r.latest)
		if r.info.FlushErr != "" {
			fmt.Fprintf(&b, "    flush failed: %s\n", r.info.FlushErr)
		} else if r.info.Path != "" {
			fmt.Fprintf(&b, "    saved %s\n", r.info.Path)
		}
	}
	b.WriteString("\npress q to stop all sessions and save\n")
	return b.String()
}

// RunDashboard shows the dashboard until the user quits or ctx ends.
// Quitting calls stop.
func RunDashboard(ctx context.Context, manager *acquisition.Manager, stop func()) error {
	p := tea.NewProgram(newDashboard(manager, stop), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
