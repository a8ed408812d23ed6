package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

func testAlert(name string, priority domain.AlertPriority) domain.Alert {
	return domain.Alert{
		ID:        "a-1",
		Type:      name,
		Priority:  priority,
		Message:   "something happened",
		Timestamp: time.Now(),
	}
}

func TestRegistry_DispatchMissingChannel(t *testing.T) {
	r := NewRegistry(0)

	if r.Dispatch(context.Background(), "webhook", testAlert("x", domain.PriorityHigh)) {
		t.Error("dispatch to unregistered channel reported success")
	}
}

func TestRegistry_DispatchDelivers(t *testing.T) {
	r := NewRegistry(0)

	var got []domain.Alert
	r.Register(NewCustomChannel("capture", func(_ context.Context, a domain.Alert) bool {
		got = append(got, a)
		return true
	}))

	if !r.Dispatch(context.Background(), "capture", testAlert("x", domain.PriorityHigh)) {
		t.Fatal("dispatch failed")
	}
	if len(got) != 1 {
		t.Errorf("delivered %d alerts, want 1", len(got))
	}
}

func TestRegistry_RateLimitSuppressesRepeats(t *testing.T) {
	r := NewRegistry(time.Minute)

	delivered := 0
	r.Register(NewCustomChannel("capture", func(context.Context, domain.Alert) bool {
		delivered++
		return true
	}))

	alert := testAlert("same", domain.PriorityHigh)
	for i := 0; i < 3; i++ {
		// Suppression is deliberate, so Dispatch still reports success.
		if !r.Dispatch(context.Background(), "capture", alert) {
			t.Fatal("suppressed dispatch reported failure")
		}
	}
	if delivered != 1 {
		t.Errorf("delivered %d times within window, want 1", delivered)
	}

	// A different alert type is a different key and goes through.
	r.Dispatch(context.Background(), "capture", testAlert("other", domain.PriorityHigh))
	if delivered != 2 {
		t.Errorf("delivered %d after distinct alert, want 2", delivered)
	}
}

func TestRegistry_RateLimitWindowExpiry(t *testing.T) {
	r := NewRegistry(time.Minute)

	delivered := 0
	r.Register(NewCustomChannel("capture", func(context.Context, domain.Alert) bool {
		delivered++
		return true
	}))

	current := time.Now()
	r.mu.Lock()
	r.limits["capture"].now = func() time.Time { return current }
	r.mu.Unlock()

	alert := testAlert("same", domain.PriorityHigh)
	r.Dispatch(context.Background(), "capture", alert)
	current = current.Add(61 * time.Second)
	r.Dispatch(context.Background(), "capture", alert)

	if delivered != 2 {
		t.Errorf("delivered %d across expired window, want 2", delivered)
	}
}

func TestRegistry_PanickingChannelIsFailure(t *testing.T) {
	r := NewRegistry(0)
	r.Register(NewCustomChannel("explode", func(context.Context, domain.Alert) bool {
		panic("channel bug")
	}))

	if r.Dispatch(context.Background(), "explode", testAlert("x", domain.PriorityHigh)) {
		t.Error("panicking channel reported success")
	}
}

func TestWebhookChannel(t *testing.T) {
	var received domain.Alert
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := jsonDecode(r, &received); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	ch := NewWebhookChannel(ok.URL, time.Second)
	alert := testAlert("backend_disconnected", domain.PriorityCritical)
	if !ch.Send(context.Background(), alert) {
		t.Fatal("delivery to healthy webhook failed")
	}
	if received.Type != "backend_disconnected" {
		t.Errorf("webhook received type %q", received.Type)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	if NewWebhookChannel(broken.URL, time.Second).Send(context.Background(), alert) {
		t.Error("5xx response reported as delivered")
	}

	if NewWebhookChannel("http://127.0.0.1:1", 100*time.Millisecond).Send(context.Background(), alert) {
		t.Error("unreachable webhook reported as delivered")
	}
}

func TestNotifyChannel(t *testing.T) {
	sent := false
	ch := NewNotifyChannel(func(context.Context, domain.Alert) error {
		sent = true
		return nil
	})

	if !ch.Send(context.Background(), testAlert("x", domain.PriorityHigh)) {
		t.Fatal("notify delivery failed")
	}
	if !sent {
		t.Error("notifier not invoked")
	}

	if NewNotifyChannel(nil).Send(context.Background(), testAlert("x", domain.PriorityHigh)) {
		t.Error("nil notifier reported success")
	}
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
