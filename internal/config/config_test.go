package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kev-in-ta/CARISPAWProject/internal/config"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaultsAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "daq_config.txt", `
# comment
MQTT_BROKER=tcp://broker:1883
MQTT_TOPIC_PREFIX=/lab/
WARMUP_FRAMES=0
DATA_DIR="IMU Data"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" || cfg.MQTTTopicPrefix != "lab" {
		t.Fatalf("unexpected mqtt settings %+v", cfg)
	}
	if cfg.WarmupFrames != 0 || cfg.RateReportInterval != 500 || cfg.DisplayWindowSize != 1000 {
		t.Fatalf("unexpected acquisition settings %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(dir, "IMU Data") {
		t.Fatalf("data dir %q", cfg.DataDir)
	}
	if cfg.DevicesFile != filepath.Join(dir, "devices.yaml") {
		t.Fatalf("devices file %q", cfg.DevicesFile)
	}
	if got := cfg.Topic("left", "pose"); got != "lab/left/pose" {
		t.Fatalf("topic %q", got)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "daq_config.txt", "WEB_SERVER_PORT=8080\n")
	t.Setenv("WEB_SERVER_PORT", "9090")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.WebServerPort != 9090 {
		t.Fatalf("port %d", cfg.WebServerPort)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "NOT_A_KEY=1\n",
		"bad int":       "WARMUP_FRAMES=lots\n",
		"negative":      "WARMUP_FRAMES=-1\n",
		"bad bool":      "MQTT_ENABLED=maybe\n",
		"missing mqtt":  "MQTT_BROKER=\n",
		"zero interval": "RATE_REPORT_INTERVAL=0\n",
	}
	for name, content := range cases {
		path := writeFile(t, t.TempDir(), "daq_config.txt", content)
		if _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDevices(t *testing.T) {
	devices, err := config.ParseDevices([]byte(`
devices:
  - name: frame
    transport: tcp
    port: 65432
    schema: frame
  - name: right
    transport: bt
    address: "98:D3:81:FD:48:C9"
    schema: wheel
    warmup: 0
  - name: bench
    transport: udp
    port: 65433
    schema: frame
    enabled: false
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices", len(devices))
	}

	frame, right, bench := devices[0], devices[1], devices[2]
	if frame.Kind() != transport.KindTCP || frame.SchemaKind() != protocol.SchemaFrame {
		t.Fatalf("unexpected frame device %+v", frame)
	}
	if frame.WarmupFrames(1000) != 1000 || right.WarmupFrames(1000) != 0 {
		t.Fatalf("warmup override not applied")
	}
	if right.Kind() != transport.KindBluetooth || right.SchemaKind() != protocol.SchemaWheel {
		t.Fatalf("unexpected right device %+v", right)
	}
	if !frame.IsEnabled() || bench.IsEnabled() {
		t.Fatalf("enabled flags wrong")
	}

	tc := bench.TransportConfig(config.Default())
	if tc.Kind != transport.KindUDP || tc.Port != 65433 || tc.MaxDatagram != 128 {
		t.Fatalf("unexpected transport config %+v", tc)
	}
}

func TestParseDevicesRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "devices: []\n",
		"no name":        "devices:\n  - transport: tcp\n    port: 1\n    schema: frame\n",
		"duplicate":      "devices:\n  - {name: a, transport: tcp, port: 1, schema: frame}\n  - {name: a, transport: udp, port: 2, schema: frame}\n",
		"bad transport":  "devices:\n  - {name: a, transport: serial, port: 1, schema: frame}\n",
		"bad schema":     "devices:\n  - {name: a, transport: tcp, port: 1, schema: radar}\n",
		"no port":        "devices:\n  - {name: a, transport: udp, schema: frame}\n",
		"bad bt address": "devices:\n  - {name: a, transport: bt, address: nope, schema: wheel}\n",
		"no bt target":   "devices:\n  - {name: a, transport: bt, schema: wheel}\n",
	}
	for name, content := range cases {
		if _, err := config.ParseDevices([]byte(content)); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if strings.TrimSpace(err.Error()) == "" {
			t.Fatalf("%s: empty error", name)
		}
	}
}
