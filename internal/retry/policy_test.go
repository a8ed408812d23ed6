package retry

import (
	"testing"

	"github.com/planwise/authguard/internal/core/domain"
)

func TestTable_EveryKindHasPolicy(t *testing.T) {
	for _, kind := range domain.Kinds {
		if _, ok := DefaultPolicies[kind]; !ok {
			t.Errorf("no policy for kind %s", kind)
		}
	}
}

func TestTable_Info(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name     string
		kind     domain.ErrorKind
		attempt  int
		canRetry bool
	}{
		{"network first attempt", domain.ErrNetwork, 0, true},
		{"network below cap", domain.ErrNetwork, 2, true},
		{"network at cap", domain.ErrNetwork, 3, false},
		{"network past cap", domain.ErrNetwork, 10, false},
		{"unavailable gets more patience", domain.ErrServiceUnavailable, 4, true},
		{"user not found never retries", domain.ErrUserNotFound, 0, false},
		{"user exists never retries", domain.ErrUserExists, 0, false},
		{"access denied never retries", domain.ErrOAuthAccessDenied, 0, false},
		{"rate limited no automatic retry", domain.ErrRateLimited, 0, false},
		{"unknown retries once", domain.ErrUnknown, 0, true},
		{"unknown stops after one", domain.ErrUnknown, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := table.Info(tt.kind, tt.attempt)
			if info.CanRetry != tt.canRetry {
				t.Errorf("Info(%s, %d).CanRetry = %v, want %v",
					tt.kind, tt.attempt, info.CanRetry, tt.canRetry)
			}
		})
	}
}

func TestTable_CanRetryMonotone(t *testing.T) {
	table := NewTable()

	// Once CanRetry flips to false it must stay false as attempts grow.
	for _, kind := range domain.Kinds {
		flipped := false
		for attempt := 0; attempt < 12; attempt++ {
			info := table.Info(kind, attempt)
			if flipped && info.CanRetry {
				t.Errorf("kind %s: CanRetry became true again at attempt %d", kind, attempt)
			}
			if !info.CanRetry {
				flipped = true
			}
		}
	}
}

func TestTable_RemainingNeverNegative(t *testing.T) {
	table := NewTable()

	for _, kind := range domain.Kinds {
		for attempt := 0; attempt < 12; attempt++ {
			if info := table.Info(kind, attempt); info.Remaining < 0 {
				t.Errorf("kind %s attempt %d: Remaining = %d", kind, attempt, info.Remaining)
			}
		}
	}
}

func TestTable_UnlistedKindNotRetryable(t *testing.T) {
	table := NewTableWith(map[domain.ErrorKind]Policy{})

	if info := table.Info(domain.ErrNetwork, 0); info.CanRetry {
		t.Error("kind missing from table must not be retryable")
	}
}

func TestTable_RateLimitedAllowsManualRetry(t *testing.T) {
	table := NewTable()

	p := table.Policy(domain.ErrRateLimited)
	if !p.AllowRetry {
		t.Error("RATE_LIMITED should be flagged retryable for the caller")
	}
	if p.MaxRetries != 0 {
		t.Errorf("RATE_LIMITED MaxRetries = %d, want 0", p.MaxRetries)
	}

	// Info keeps the policy flag visible even when CanRetry is false.
	info := table.Info(domain.ErrRateLimited, 0)
	if info.CanRetry {
		t.Error("Info.CanRetry = true for RATE_LIMITED")
	}
	if !info.AllowRetry {
		t.Error("Info.AllowRetry = false for RATE_LIMITED")
	}
	if info := table.Info(domain.ErrUserExists, 0); info.AllowRetry {
		t.Error("Info.AllowRetry = true for USER_EXISTS")
	}
}
