// cmd/qdec-monitor/config.go
package main

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
}

type MonitorConfig struct {
	Port PortConfig `yaml:"port"`

	// Encoders limits output to the named IDs; empty means all.
	Encoders []string `yaml:"encoders,omitempty"`
}

type PortConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms,omitempty"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Monitor.Port.Device == "" {
		return cfg, errors.New("monitor.port.device is required")
	}
	if cfg.Monitor.Port.Baud == 0 {
		cfg.Monitor.Port.Baud = 115200
	}
	return cfg, nil
}
