package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDDAQ     string
	MQTTClientIDConsole string
	MQTTTopicPrefix     string
	MQTTEnabled         bool

	// Web Server
	WebServerPort int

	// Display
	DisplayWindowSize     int // samples
	DisplayUpdateInterval int // milliseconds

	// Acquisition
	WarmupFrames       int
	RateReportInterval int // samples
	UDPMaxDatagram     int // bytes

	// Storage
	DataDir     string
	DevicesFile string
}

// Keys lists every key setValue understands. Each can also be given as an
// environment variable, which wins over the file.
var Keys = []string{
	"MQTT_BROKER",
	"MQTT_CLIENT_ID_DAQ",
	"MQTT_CLIENT_ID_CONSOLE",
	"MQTT_TOPIC_PREFIX",
	"MQTT_ENABLED",
	"WEB_SERVER_PORT",
	"DISPLAY_WINDOW_SIZE",
	"DISPLAY_UPDATE_INTERVAL",
	"WARMUP_FRAMES",
	"RATE_REPORT_INTERVAL",
	"UDP_MAX_DATAGRAM",
	"DATA_DIR",
	"DEVICES_FILE",
}

// globalConfig is only written by InitGlobal; readers go through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDDAQ:       "caris-daq",
		MQTTClientIDConsole:   "caris-console",
		MQTTTopicPrefix:       "caris",
		MQTTEnabled:           true,
		WebServerPort:         8080,
		DisplayWindowSize:     1000,
		DisplayUpdateInterval: 100,
		WarmupFrames:          1000,
		RateReportInterval:    500,
		UDPMaxDatagram:        128,
		DataDir:               "IMU Data",
		DevicesFile:           "devices.yaml",
	}
}

// Load reads the configuration file and returns a Config struct. Relative
// DATA_DIR and DEVICES_FILE paths are resolved against the file's directory.
func Load(configPath string) (*Config, error) {
	values, err := godotenv.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	for _, key := range Keys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	// apply in a stable order so errors are reproducible
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := Default()
	for _, key := range keys {
		if err := cfg.setValue(key, strings.TrimSpace(values[key])); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	dir := filepath.Dir(configPath)
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(dir, cfg.DataDir)
	}
	if !filepath.IsAbs(cfg.DevicesFile) {
		cfg.DevicesFile = filepath.Join(dir, cfg.DevicesFile)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DAQ":
		c.MQTTClientIDDAQ = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_TOPIC_PREFIX":
		c.MQTTTopicPrefix = strings.Trim(value, "/")
	case "MQTT_ENABLED":
		c.MQTTEnabled, err = strconv.ParseBool(value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = strconv.Atoi(value)

	// Display
	case "DISPLAY_WINDOW_SIZE":
		c.DisplayWindowSize, err = strconv.Atoi(value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = strconv.Atoi(value)

	// Acquisition
	case "WARMUP_FRAMES":
		c.WarmupFrames, err = strconv.Atoi(value)
	case "RATE_REPORT_INTERVAL":
		c.RateReportInterval, err = strconv.Atoi(value)
	case "UDP_MAX_DATAGRAM":
		c.UDPMaxDatagram, err = strconv.Atoi(value)

	// Storage
	case "DATA_DIR":
		c.DataDir = value
	case "DEVICES_FILE":
		c.DevicesFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTEnabled && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required when MQTT_ENABLED is true")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	if c.DisplayWindowSize <= 0 {
		return fmt.Errorf("DISPLAY_WINDOW_SIZE must be positive")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("WARMUP_FRAMES must not be negative")
	}
	if c.RateReportInterval <= 0 {
		return fmt.Errorf("RATE_REPORT_INTERVAL must be positive")
	}
	if c.UDPMaxDatagram <= 0 {
		return fmt.Errorf("UDP_MAX_DATAGRAM must be positive")
	}
	return nil
}

// Topic joins the configured prefix with the given parts.
func (c *Config) Topic(parts ...string) string {
	return strings.Join(append([]string{c.MQTTTopicPrefix}, parts...), "/")
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
