package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

// Device is one wireless module entry in the devices file.
type Device struct {
	Name         string `yaml:"name"`
	Transport    string `yaml:"transport"`
	Address      string `yaml:"address"`
	Port         int    `yaml:"port"`
	Channel      uint8  `yaml:"channel"`
	SerialDevice string `yaml:"serial_device"`
	BaudRate     uint   `yaml:"baud_rate"`
	Schema       string `yaml:"schema"`

	// nil means the global WARMUP_FRAMES
	Warmup  *int  `yaml:"warmup"`
	Enabled *bool `yaml:"enabled"`

	kind   transport.Kind
	schema protocol.Schema
}

// DevicesFile is the top-level structure of devices.yaml.
type DevicesFile struct {
	Devices []Device `yaml:"devices"`
}

// LoadDevices reads and validates a devices file.
func LoadDevices(path string) ([]Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read devices file: %w", err)
	}
	return ParseDevices(data)
}

func ParseDevices(data []byte) ([]Device, error) {
	var f DevicesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse devices file: %w", err)
	}
	if len(f.Devices) == 0 {
		return nil, fmt.Errorf("devices file lists no devices")
	}

	seen := make(map[string]bool)
	for i := range f.Devices {
		d := &f.Devices[i]
		if d.Name == "" {
			return nil, fmt.Errorf("device %d: name is required", i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("device %q listed twice", d.Name)
		}
		seen[d.Name] = true
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
	}
	return f.Devices, nil
}

func (d *Device) validate() error {
	kind, err := transport.ParseKind(d.Transport)
	if err != nil {
		return err
	}
	schema, err := protocol.ParseSchema(d.Schema)
	if err != nil {
		return err
	}
	d.kind, d.schema = kind, schema

	switch kind {
	case transport.KindTCP, transport.KindUDP:
		if d.Port <= 0 || d.Port > 65535 {
			return fmt.Errorf("%s needs a port, got %d", kind, d.Port)
		}
	case transport.KindBluetooth:
		if d.Address == "" && d.SerialDevice == "" {
			return fmt.Errorf("bt needs an address or a serial_device")
		}
		if d.SerialDevice == "" {
			if _, err := transport.ParseBDAddr(d.Address); err != nil {
				return err
			}
		}
	}
	if d.Warmup != nil && *d.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative")
	}
	return nil
}

func (d Device) IsEnabled() bool { return d.Enabled == nil || *d.Enabled }

func (d Device) Kind() transport.Kind { return d.kind }

func (d Device) SchemaKind() protocol.Schema { return d.schema }

// WarmupFrames resolves the device override against the global default.
func (d Device) WarmupFrames(global int) int {
	if d.Warmup != nil {
		return *d.Warmup
	}
	return global
}

// TransportConfig builds the attachment settings for this device.
func (d Device) TransportConfig(c *Config) transport.Config {
	return transport.Config{
		Kind:         d.kind,
		Address:      d.Address,
		Port:         d.Port,
		Channel:      d.Channel,
		SerialDevice: d.SerialDevice,
		BaudRate:     d.BaudRate,
		MaxDatagram:  c.UDPMaxDatagram,
	}
}
