package domain

import "time"

// ConnectionStatus represents the backend reachability state machine.
type ConnectionStatus string

const (
	StatusUnknown      ConnectionStatus = "UNKNOWN"
	StatusChecking     ConnectionStatus = "CHECKING"
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// ConnectionQuality buckets a latency sample into a deterministic grade.
type ConnectionQuality string

const (
	QualityExcellent ConnectionQuality = "excellent"
	QualityGood      ConnectionQuality = "good"
	QualityFair      ConnectionQuality = "fair"
	QualityPoor      ConnectionQuality = "poor"
	QualityVeryPoor  ConnectionQuality = "very_poor"
)

// StatusChange is published when the settled connection status changes.
type StatusChange struct {
	From      ConnectionStatus
	To        ConnectionStatus
	Timestamp time.Time
}

// CheckResult is published after every connectivity check, changed or not.
type CheckResult struct {
	Available bool
	Status    ConnectionStatus
	Latency   time.Duration
	Err       error
	Timestamp time.Time
}

// LatencyReport aggregates a burst of latency samples.
type LatencyReport struct {
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	Samples int
}
