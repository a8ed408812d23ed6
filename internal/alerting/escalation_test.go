package alerting

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEscalator_DeliversAndClears(t *testing.T) {
	var delivered atomic.Int64
	r := NewRegistry(0)
	r.Register(NewCustomChannel("capture", func(context.Context, domain.Alert) bool {
		delivered.Add(1)
		return true
	}))

	es := NewEscalator(EscalationConfig{
		BaseInterval:   5 * time.Millisecond,
		Multiplier:     2,
		MaxEscalations: 4,
	}, r)
	defer es.Stop()

	es.Escalate(testAlert("backend_disconnected", domain.PriorityCritical), []string{"capture"})

	waitFor(t, time.Second, func() bool { return es.Pending() == 0 })
	if delivered.Load() != 1 {
		t.Errorf("delivered %d times, want 1", delivered.Load())
	}
}

func TestEscalator_DropsAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int64
	r := NewRegistry(0)
	r.Register(NewCustomChannel("capture", func(context.Context, domain.Alert) bool {
		attempts.Add(1)
		return false
	}))

	es := NewEscalator(EscalationConfig{
		BaseInterval:   2 * time.Millisecond,
		Multiplier:     2,
		MaxEscalations: 3,
	}, r)
	defer es.Stop()

	es.Escalate(testAlert("backend_disconnected", domain.PriorityCritical), []string{"capture"})

	waitFor(t, time.Second, func() bool { return es.Pending() == 0 })
	if attempts.Load() != 3 {
		t.Errorf("attempted %d deliveries, want 3", attempts.Load())
	}
}

func TestEscalator_DuplicateAlertNotRescheduled(t *testing.T) {
	r := NewRegistry(0)
	es := NewEscalator(EscalationConfig{
		BaseInterval:   time.Hour,
		Multiplier:     2,
		MaxEscalations: 4,
	}, r)
	defer es.Stop()

	alert := testAlert("backend_disconnected", domain.PriorityCritical)
	es.Escalate(alert, []string{"capture"})
	es.Escalate(alert, []string{"capture"})

	if es.Pending() != 1 {
		t.Errorf("pending = %d, want 1", es.Pending())
	}
}

func TestEscalator_StopCancelsTimers(t *testing.T) {
	var delivered atomic.Int64
	r := NewRegistry(0)
	r.Register(NewCustomChannel("capture", func(context.Context, domain.Alert) bool {
		delivered.Add(1)
		return true
	}))

	es := NewEscalator(EscalationConfig{
		BaseInterval:   20 * time.Millisecond,
		Multiplier:     2,
		MaxEscalations: 4,
	}, r)

	es.Escalate(testAlert("backend_disconnected", domain.PriorityCritical), []string{"capture"})
	es.Stop()

	if es.Pending() != 0 {
		t.Errorf("pending after Stop = %d, want 0", es.Pending())
	}

	time.Sleep(50 * time.Millisecond)
	if delivered.Load() != 0 {
		t.Errorf("delivered %d after Stop, want 0", delivered.Load())
	}
}

func TestEscalator_IgnoredAfterStop(t *testing.T) {
	es := NewEscalator(DefaultEscalationConfig, NewRegistry(0))
	es.Stop()

	es.Escalate(testAlert("x", domain.PriorityHigh), []string{"capture"})
	if es.Pending() != 0 {
		t.Errorf("pending = %d after Escalate on stopped escalator", es.Pending())
	}
}
