package alerting

import (
	"fmt"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/errlog"
)

// Snapshot is the aggregate view rules are evaluated against. It is pulled
// fresh on every evaluation tick.
type Snapshot struct {
	Log        errlog.Snapshot
	Connection domain.ConnectionStatus
}

// Rule describes one alert condition.
type Rule struct {
	Name      string
	Condition func(Snapshot) bool
	Priority  domain.AlertPriority
	Message   func(Snapshot) string
	Channels  []string
	Escalate  bool
	Cooldown  time.Duration
}

// Thresholds tune the default rule set.
type Thresholds struct {
	MinAuthCalls    int
	MaxFailureRate  float64
	SlowAuthAverage time.Duration
	CriticalBurst   int
}

// DefaultThresholds provides sensible defaults.
var DefaultThresholds = Thresholds{
	MinAuthCalls:    5,
	MaxFailureRate:  0.5,
	SlowAuthAverage: 3 * time.Second,
	CriticalBurst:   3,
}

// DefaultRules builds the standard rule set.
func DefaultRules(t Thresholds) []Rule {
	if t.MinAuthCalls <= 0 {
		t.MinAuthCalls = DefaultThresholds.MinAuthCalls
	}
	if t.MaxFailureRate <= 0 {
		t.MaxFailureRate = DefaultThresholds.MaxFailureRate
	}
	if t.SlowAuthAverage <= 0 {
		t.SlowAuthAverage = DefaultThresholds.SlowAuthAverage
	}
	if t.CriticalBurst <= 0 {
		t.CriticalBurst = DefaultThresholds.CriticalBurst
	}

	return []Rule{
		{
			Name:     "backend_disconnected",
			Priority: domain.PriorityCritical,
			Condition: func(s Snapshot) bool {
				return s.Connection == domain.StatusDisconnected
			},
			Message: func(Snapshot) string {
				return "auth backend is unreachable"
			},
			Channels: []string{"console", "webhook"},
			Escalate: true,
			Cooldown: 5 * time.Minute,
		},
		{
			Name:     "high_auth_failure_rate",
			Priority: domain.PriorityHigh,
			Condition: func(s Snapshot) bool {
				for _, op := range s.Log.Operations {
					if op.Count >= t.MinAuthCalls && 1-op.SuccessRate > t.MaxFailureRate {
						return true
					}
				}
				return false
			},
			Message: func(s Snapshot) string {
				for _, op := range s.Log.Operations {
					if op.Count >= t.MinAuthCalls && 1-op.SuccessRate > t.MaxFailureRate {
						return fmt.Sprintf("operation %s failing at %.0f%%",
							op.Operation, (1-op.SuccessRate)*100)
					}
				}
				return "auth failure rate above threshold"
			},
			Channels: []string{"console", "webhook"},
			Escalate: true,
			Cooldown: 5 * time.Minute,
		},
		{
			Name:     "slow_auth_operations",
			Priority: domain.PriorityMedium,
			Condition: func(s Snapshot) bool {
				for _, op := range s.Log.Operations {
					if op.Count >= t.MinAuthCalls && op.AvgDuration > t.SlowAuthAverage {
						return true
					}
				}
				return false
			},
			Message: func(Snapshot) string {
				return "auth operations are slower than expected"
			},
			Channels: []string{"console"},
			Cooldown: 10 * time.Minute,
		},
		{
			Name:     "critical_error_burst",
			Priority: domain.PriorityCritical,
			Condition: func(s Snapshot) bool {
				return s.Log.BySeverity[domain.SeverityCritical] >= t.CriticalBurst
			},
			Message: func(s Snapshot) string {
				return fmt.Sprintf("%d critical errors in recent history",
					s.Log.BySeverity[domain.SeverityCritical])
			},
			Channels: []string{"console", "webhook", "notify"},
			Escalate: true,
			Cooldown: 5 * time.Minute,
		},
	}
}
