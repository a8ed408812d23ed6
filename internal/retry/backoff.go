package retry

import (
	"math"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

// Backoff computes exponential delays within a bounded total retry-time
// budget.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Budget     time.Duration
}

// DefaultBackoff provides sensible defaults.
var DefaultBackoff = Backoff{
	Initial:    500 * time.Millisecond,
	Max:        30 * time.Second,
	Multiplier: 2.0,
	Budget:     2 * time.Minute,
}

// Rate-limit responses get a longer floor regardless of attempt count:
// hammering a throttling backend only extends the throttle.
var initialScale = map[domain.ErrorKind]float64{
	domain.ErrRateLimited:        10,
	domain.ErrServiceUnavailable: 2,
}

// Decision is the outcome of one backoff computation.
type Decision struct {
	Delay       time.Duration
	ShouldRetry bool
	Remaining   time.Duration
}

// ComputeDelay returns the delay before the next attempt. Once elapsed time
// exceeds the budget, ShouldRetry is false regardless of attempt count, and
// any delay is clamped so the budget is never overshot.
func (b Backoff) ComputeDelay(attemptCount int, kind domain.ErrorKind, elapsed time.Duration) Decision {
	remaining := b.Budget - elapsed
	if remaining <= 0 {
		return Decision{Delay: 0, ShouldRetry: false, Remaining: 0}
	}

	initial := float64(b.Initial)
	if scale, ok := initialScale[kind]; ok {
		initial *= scale
	}

	if attemptCount < 0 {
		attemptCount = 0
	}
	delay := initial * math.Pow(b.Multiplier, float64(attemptCount))
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	if delay > float64(remaining) {
		delay = float64(remaining)
	}

	return Decision{
		Delay:       time.Duration(delay),
		ShouldRetry: true,
		Remaining:   remaining,
	}
}
