// Package domain defines the core types shared across the resilience layer.
package domain

import (
	"fmt"
	"time"
)

// ErrorKind identifies one category in the closed auth error taxonomy.
// Classification is total: every raw failure maps to exactly one kind.
type ErrorKind string

const (
	ErrNetwork             ErrorKind = "NETWORK_ERROR"
	ErrServiceUnavailable  ErrorKind = "SERVICE_UNAVAILABLE"
	ErrServiceMaintenance  ErrorKind = "SERVICE_MAINTENANCE"
	ErrInvalidCredentials  ErrorKind = "INVALID_CREDENTIALS"
	ErrUserNotFound        ErrorKind = "USER_NOT_FOUND"
	ErrUserExists          ErrorKind = "USER_EXISTS"
	ErrWeakPassword        ErrorKind = "WEAK_PASSWORD"
	ErrRateLimited         ErrorKind = "RATE_LIMITED"
	ErrEmailNotConfirmed   ErrorKind = "EMAIL_NOT_CONFIRMED"
	ErrOAuthProvider       ErrorKind = "OAUTH_PROVIDER_ERROR"
	ErrOAuthUnavailable    ErrorKind = "OAUTH_PROVIDER_UNAVAILABLE"
	ErrOAuthAccessDenied   ErrorKind = "OAUTH_ACCESS_DENIED"
	ErrOAuthPopupBlocked   ErrorKind = "OAUTH_POPUP_BLOCKED"
	ErrOAuthTimeout        ErrorKind = "OAUTH_TIMEOUT"
	ErrServer              ErrorKind = "SERVER_ERROR"
	ErrUnknown             ErrorKind = "UNKNOWN"
)

// Kinds lists every member of the taxonomy. Used by the message catalog
// tests to verify full coverage.
var Kinds = []ErrorKind{
	ErrNetwork, ErrServiceUnavailable, ErrServiceMaintenance,
	ErrInvalidCredentials, ErrUserNotFound, ErrUserExists, ErrWeakPassword,
	ErrRateLimited, ErrEmailNotConfirmed, ErrOAuthProvider,
	ErrOAuthUnavailable, ErrOAuthAccessDenied, ErrOAuthPopupBlocked,
	ErrOAuthTimeout, ErrServer, ErrUnknown,
}

// Severity is the logging severity attached to a processed error.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// KindSeverity maps each error kind to the severity it is logged at.
// Infrastructure failures are high so they surface in alerting; user-input
// errors are low. UNKNOWN is high to force investigation.
var KindSeverity = map[ErrorKind]Severity{
	ErrNetwork:            SeverityHigh,
	ErrServiceUnavailable: SeverityCritical,
	ErrServiceMaintenance: SeverityMedium,
	ErrInvalidCredentials: SeverityLow,
	ErrUserNotFound:       SeverityLow,
	ErrUserExists:         SeverityLow,
	ErrWeakPassword:       SeverityLow,
	ErrRateLimited:        SeverityHigh,
	ErrEmailNotConfirmed:  SeverityLow,
	ErrOAuthProvider:      SeverityHigh,
	ErrOAuthUnavailable:   SeverityHigh,
	ErrOAuthAccessDenied:  SeverityLow,
	ErrOAuthPopupBlocked:  SeverityMedium,
	ErrOAuthTimeout:       SeverityMedium,
	ErrServer:             SeverityHigh,
	ErrUnknown:            SeverityHigh,
}

// SeverityFor returns the logging severity for a kind, defaulting to high.
func SeverityFor(kind ErrorKind) Severity {
	if s, ok := KindSeverity[kind]; ok {
		return s
	}
	return SeverityHigh
}

// RawError is the defensive view of whatever a provider call rejected with.
// Any subset of fields may be absent; classification must cope with all of
// them missing.
type RawError struct {
	Message string
	Code    string
	Name    string
	Status  int
	Err     error
}

// ErrorContext carries per-call metadata through classification and logging.
type ErrorContext struct {
	Operation    string
	Timestamp    time.Time
	AttemptCount int
	TotalElapsed time.Duration
	Locale       string
	Provider     OAuthProvider
	Extra        map[string]any
}

// ProcessedError is the structured decision returned for every failed
// operation. Immutable after construction. CanRetry drives automatic
// retries; RetryAfterWait marks failures the caller may retry manually
// after waiting even though no automatic retry fires (rate limiting,
// exhausted transient outages).
type ProcessedError struct {
	Kind            ErrorKind
	Cause           error
	UserMessage     string
	CanRetry        bool
	RetryAfterWait  bool
	MaxRetries      int
	RetryDelay      time.Duration
	RemainingBudget time.Duration
	Severity        Severity
	Context         ErrorContext
}

// Error implements error. The user message is localized and never contains
// raw provider detail.
func (e *ProcessedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
}

// Unwrap exposes the original cause for errors.Is/As chains.
func (e *ProcessedError) Unwrap() error {
	return e.Cause
}
