package domain

import "time"

// AlertPriority orders alerts for channel routing and escalation.
type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// Alert is a single fired alert produced by rule evaluation.
type Alert struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Priority  AlertPriority  `json:"priority"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
