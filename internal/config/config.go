// Package config loads the radar service configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hoangnv31/mmwave-tracking/internal/capture"
	"github.com/hoangnv31/mmwave-tracking/internal/devicecfg"
	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
	"github.com/hoangnv31/mmwave-tracking/internal/monitoring"
	"github.com/hoangnv31/mmwave-tracking/internal/serialmux"
)

// DefaultConfigPath is the path to the example service configuration.
const DefaultConfigPath = "config/radar.defaults.json"

// maxFileSize bounds configuration files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// PortConfig describes one serial port.
type PortConfig struct {
	Path string `json:"path"`
	serialmux.PortOptions
}

// Config is the root service configuration. Fields omitted from the JSON
// file are nil and the Get* methods return their defaults, so partial
// configs are safe.
type Config struct {
	DataPort *PortConfig `json:"data_port,omitempty"`
	CLIPort  *PortConfig `json:"cli_port,omitempty"`

	// DeviceConfig is the .cfg script uploaded over the CLI port.
	DeviceConfig *string `json:"device_config,omitempty"`
	LineDelay    *string `json:"line_delay,omitempty"` // duration string like "30ms"
	CharDelay    *string `json:"char_delay,omitempty"` // duration string like "1ms"

	MaxPacketLength *uint32 `json:"max_packet_length,omitempty"`

	CaptureDir    *string `json:"capture_dir,omitempty"`
	FramesPerFile *int    `json:"frames_per_file,omitempty"`

	DBPath   *string `json:"db_path,omitempty"`
	Listen   *string `json:"listen,omitempty"`
	LogLevel *string `json:"log_level,omitempty"`
}

// LoadConfig loads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	for name, p := range map[string]*PortConfig{"data_port": c.DataPort, "cli_port": c.CLIPort} {
		if p == nil {
			continue
		}
		if _, err := p.Normalise(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	for name, d := range map[string]*string{"line_delay": c.LineDelay, "char_delay": c.CharDelay} {
		if d == nil || *d == "" {
			continue
		}
		v, err := time.ParseDuration(*d)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *d, err)
		}
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *d)
		}
	}

	if c.MaxPacketLength != nil && *c.MaxPacketLength < mmwave.HeaderSize {
		return fmt.Errorf("max_packet_length must be at least %d, got %d", mmwave.HeaderSize, *c.MaxPacketLength)
	}

	if c.FramesPerFile != nil && *c.FramesPerFile <= 0 {
		return fmt.Errorf("frames_per_file must be positive, got %d", *c.FramesPerFile)
	}

	if c.LogLevel != nil {
		switch *c.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", *c.LogLevel)
		}
	}
	return nil
}

func (c *Config) GetDataPort() PortConfig {
	if c.DataPort == nil {
		return PortConfig{Path: "/dev/ttyUSB1", PortOptions: serialmux.PortOptions{BaudRate: serialmux.DefaultDataBaudRate}}
	}
	return *c.DataPort
}

func (c *Config) GetCLIPort() PortConfig {
	if c.CLIPort == nil {
		return PortConfig{Path: "/dev/ttyUSB0", PortOptions: serialmux.PortOptions{BaudRate: serialmux.DefaultCLIBaudRate}}
	}
	p := *c.CLIPort
	if p.BaudRate == 0 {
		p.BaudRate = serialmux.DefaultCLIBaudRate
	}
	return p
}

func (c *Config) GetDeviceConfig() string {
	if c.DeviceConfig == nil {
		return ""
	}
	return *c.DeviceConfig
}

// GetUploadOptions returns the device configuration pacing, starting from
// devicecfg.DefaultOptions.
func (c *Config) GetUploadOptions() devicecfg.Options {
	opts := devicecfg.DefaultOptions()
	opts.BaudRate = c.GetCLIPort().BaudRate
	if d, ok := parseDuration(c.LineDelay); ok {
		opts.LineDelay = d
	}
	if d, ok := parseDuration(c.CharDelay); ok {
		opts.CharDelay = d
	}
	return opts
}

func (c *Config) GetMaxPacketLength() uint32 {
	if c.MaxPacketLength == nil {
		return mmwave.DefaultMaxPacketLength
	}
	return *c.MaxPacketLength
}

func (c *Config) GetCaptureDir() string {
	if c.CaptureDir == nil {
		return ""
	}
	return *c.CaptureDir
}

func (c *Config) GetFramesPerFile() int {
	if c.FramesPerFile == nil {
		return capture.DefaultFramesPerFile
	}
	return *c.FramesPerFile
}

func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return "frames.db"
	}
	return *c.DBPath
}

func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return "localhost:8080"
	}
	return *c.Listen
}

func (c *Config) GetLogLevel() mmwave.Level {
	if c.LogLevel == nil {
		return mmwave.LevelWarn
	}
	return monitoring.ParseLevel(*c.LogLevel)
}

func parseDuration(s *string) (time.Duration, bool) {
	if s == nil || *s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, false
	}
	return d, true
}
