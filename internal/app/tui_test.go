package app

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport/transporttest"
)

func TestDashboardShowsSessionsAndQuits(t *testing.T) {
	fake := transporttest.NewStream([]byte{0x00})
	s := acquisition.NewSession(acquisition.Config{Name: "frame", Schema: protocol.SchemaFrame, DataDir: t.TempDir()},
		acquisition.WithConnector(func(context.Context, transport.Config) (transport.Transport, error) {
			return fake, nil
		}))
	m := acquisition.NewManager()
	if err := m.Add(s); err != nil {
		t.Fatal(err)
	}

	stopped := false
	d := newDashboard(m, func() { stopped = true })
	if view := d.View(); !strings.Contains(view, "frame") || !strings.Contains(view, "connecting") {
		t.Fatalf("unexpected view:\n%s", view)
	}

	_ = s.Run(context.Background())
	model, cmd := d.Update(dashboardTick{})
	if cmd == nil {
		t.Fatal("tick should schedule the next refresh")
	}
	if view := model.View(); !strings.Contains(view, "disconnected") || !strings.Contains(view, "saved") {
		t.Fatalf("view not refreshed:\n%s", view)
	}

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !stopped || cmd == nil {
		t.Fatal("q should stop acquisition and quit")
	}
}
