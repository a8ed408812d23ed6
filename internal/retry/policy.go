// Package retry holds the per-kind retry policy table and backoff math.
package retry

import "github.com/planwise/authguard/internal/core/domain"

// Policy is one row in the static retry table.
type Policy struct {
	AllowRetry bool
	MaxRetries int
}

// Info is the retry decision for a kind at a given attempt count. CanRetry
// drives the automatic retry loop; AllowRetry carries the policy-level flag
// so callers can distinguish "wait and try again" from a definitive outcome.
type Info struct {
	CanRetry   bool
	AllowRetry bool
	MaxRetries int
	Remaining  int
}

// DefaultPolicies is fixed at design time. Service outages deserve more
// patience than network blips; definitive outcomes (wrong user, existing
// account, explicit OAuth denial) are never retryable because retrying
// cannot change them. RATE_LIMITED is flagged retryable for the UI but gets
// zero automatic retries: the caller must wait explicitly.
var DefaultPolicies = map[domain.ErrorKind]Policy{
	domain.ErrNetwork:            {AllowRetry: true, MaxRetries: 3},
	domain.ErrServiceUnavailable: {AllowRetry: true, MaxRetries: 5},
	domain.ErrServiceMaintenance: {AllowRetry: true, MaxRetries: 2},
	domain.ErrInvalidCredentials: {AllowRetry: true, MaxRetries: 2},
	domain.ErrUserNotFound:       {AllowRetry: false, MaxRetries: 0},
	domain.ErrUserExists:         {AllowRetry: false, MaxRetries: 0},
	domain.ErrWeakPassword:       {AllowRetry: false, MaxRetries: 0},
	domain.ErrRateLimited:        {AllowRetry: true, MaxRetries: 0},
	domain.ErrEmailNotConfirmed:  {AllowRetry: false, MaxRetries: 0},
	domain.ErrOAuthProvider:      {AllowRetry: true, MaxRetries: 2},
	domain.ErrOAuthUnavailable:   {AllowRetry: true, MaxRetries: 1},
	domain.ErrOAuthAccessDenied:  {AllowRetry: false, MaxRetries: 0},
	domain.ErrOAuthPopupBlocked:  {AllowRetry: true, MaxRetries: 1},
	domain.ErrOAuthTimeout:       {AllowRetry: true, MaxRetries: 2},
	domain.ErrServer:             {AllowRetry: true, MaxRetries: 2},
	// UNKNOWN is conservatively retryable once. Product has not confirmed
	// whether that is the intended policy; this row is the single place to
	// change it.
	domain.ErrUnknown: {AllowRetry: true, MaxRetries: 1},
}

// Table answers retry questions from a policy map. Read-only after
// construction.
type Table struct {
	policies map[domain.ErrorKind]Policy
}

// NewTable creates a table from the default policies.
func NewTable() *Table {
	return &Table{policies: DefaultPolicies}
}

// NewTableWith creates a table from a custom policy map. Kinds absent from
// the map are treated as non-retryable.
func NewTableWith(policies map[domain.ErrorKind]Policy) *Table {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &Table{policies: policies}
}

// Policy returns the raw policy row for a kind.
func (t *Table) Policy(kind domain.ErrorKind) Policy {
	return t.policies[kind]
}

// Info computes the retry decision for a kind at the given attempt count.
// CanRetry is false once attemptCount reaches MaxRetries, no matter how far
// past it grows.
func (t *Table) Info(kind domain.ErrorKind, attemptCount int) Info {
	p := t.policies[kind]
	remaining := p.MaxRetries - attemptCount
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		CanRetry:   p.AllowRetry && attemptCount < p.MaxRetries,
		AllowRetry: p.AllowRetry,
		MaxRetries: p.MaxRetries,
		Remaining:  remaining,
	}
}
