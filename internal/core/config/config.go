// Package config defines the application configuration and its YAML loader.
package config

import (
	"time"

	"github.com/planwise/authguard/internal/alerting"
	"github.com/planwise/authguard/internal/infra/audit"
	"github.com/planwise/authguard/internal/infra/store"
	"github.com/planwise/authguard/internal/monitor"
	"github.com/planwise/authguard/internal/provider"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Provider provider.Config `yaml:"provider"`
	Monitor  monitor.Config  `yaml:"monitor"`
	Alerting AlertingConfig  `yaml:"alerting"`
	Logging  LoggingConfig   `yaml:"logging"`
	Redis    store.Config    `yaml:"redis"`
	Database audit.Config    `yaml:"database"`
	Locale   string          `yaml:"locale"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, text
	MaxEntries int    `yaml:"max_entries"` // ring buffer size
}

// AlertingConfig holds rule evaluation and delivery settings.
type AlertingConfig struct {
	Interval   time.Duration             `yaml:"interval"`
	WebhookURL string                    `yaml:"webhook_url"`
	Escalation alerting.EscalationConfig `yaml:"escalation"`
	Thresholds AlertThresholds           `yaml:"thresholds"`
}

// AlertThresholds tune the default rule set.
type AlertThresholds struct {
	MinAuthCalls    int           `yaml:"min_auth_calls"`
	MaxFailureRate  float64       `yaml:"max_failure_rate"`
	SlowAuthAverage time.Duration `yaml:"slow_auth_average"`
	CriticalBurst   int           `yaml:"critical_burst"`
}

// RuleThresholds converts the config view to the alerting package's type.
func (t AlertThresholds) RuleThresholds() alerting.Thresholds {
	return alerting.Thresholds{
		MinAuthCalls:    t.MinAuthCalls,
		MaxFailureRate:  t.MaxFailureRate,
		SlowAuthAverage: t.SlowAuthAverage,
		CriticalBurst:   t.CriticalBurst,
	}
}
