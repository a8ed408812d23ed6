// Package alerting evaluates rules against aggregated telemetry on a timer,
// fires alerts through pluggable notification channels and escalates
// undelivered high-priority alerts.
package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

// Channel delivers one alert. Implementations report failure by returning
// false; they never panic into the engine or return errors.
type Channel interface {
	Type() string
	Send(ctx context.Context, alert domain.Alert) bool
}

// Registry holds channels keyed by their type tag.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	limits   map[string]*rateLimiter
	window   time.Duration
}

// NewRegistry creates a registry. window is the per-channel rate-limit
// window applied per (alert type, priority) pair; zero disables limiting.
func NewRegistry(window time.Duration) *Registry {
	return &Registry{
		channels: make(map[string]Channel),
		limits:   make(map[string]*rateLimiter),
		window:   window,
	}
}

// Register adds or replaces a channel under its type tag.
func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Type()] = ch
	r.limits[ch.Type()] = newRateLimiter(r.window)
}

// Get returns the channel for a type tag.
func (r *Registry) Get(channelType string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[channelType]
	return ch, ok
}

// Dispatch sends the alert through one channel, honoring that channel's
// rate limit. Returns false when the channel is missing, rate-limited, or
// delivery fails.
func (r *Registry) Dispatch(ctx context.Context, channelType string, alert domain.Alert) bool {
	r.mu.RLock()
	ch, ok := r.channels[channelType]
	limiter := r.limits[channelType]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	if limiter != nil && !limiter.allow(alert) {
		// Suppressed by rate limiting: deliberate, not a delivery failure.
		return true
	}
	return safeSend(ctx, ch, alert)
}

// safeSend isolates a misbehaving channel implementation.
func safeSend(ctx context.Context, ch Channel, alert domain.Alert) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return ch.Send(ctx, alert)
}

// rateLimiter suppresses repeat deliveries per (alert type, priority) key
// within a window. Each channel owns one.
type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func newRateLimiter(window time.Duration) *rateLimiter {
	return &rateLimiter{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

func (rl *rateLimiter) allow(alert domain.Alert) bool {
	if rl.window <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := alert.Type + "|" + string(alert.Priority)
	now := rl.now()
	if last, ok := rl.last[key]; ok && now.Sub(last) < rl.window {
		return false
	}
	rl.last[key] = now
	return true
}
