package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. Environment variables in the
// file body are expanded before parsing, so secrets stay out of the file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 15 * time.Second
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = 30 * time.Second
	}
	if cfg.Alerting.Interval == 0 {
		cfg.Alerting.Interval = time.Minute
	}
	if cfg.Locale == "" {
		cfg.Locale = "es"
	}

	return &cfg, nil
}
