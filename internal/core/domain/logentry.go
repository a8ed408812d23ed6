package domain

import "time"

// LogEntry is one record in the error logger's ring buffer.
type LogEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Severity  Severity       `json:"severity"`
	Context   map[string]any `json:"context,omitempty"`
	SessionID string         `json:"session_id"`
}

// PerformanceMetric records the outcome and duration of one operation call.
type PerformanceMetric struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Operation string         `json:"operation"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	SessionID string         `json:"session_id"`
}

// OperationStats aggregates performance metrics for one operation name.
type OperationStats struct {
	Operation   string        `json:"operation"`
	Count       int           `json:"count"`
	Successes   int           `json:"successes"`
	SuccessRate float64       `json:"success_rate"`
	AvgDuration time.Duration `json:"avg_duration"`
}
