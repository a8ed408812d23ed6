package alerting

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/infra/metrics"
)

// EscalationConfig tunes the retry schedule for undelivered alerts.
type EscalationConfig struct {
	BaseInterval   time.Duration `yaml:"base_interval"`
	Multiplier     float64       `yaml:"multiplier"`
	MaxEscalations int           `yaml:"max_escalations"`
}

// DefaultEscalationConfig provides sensible defaults.
var DefaultEscalationConfig = EscalationConfig{
	BaseInterval:   30 * time.Second,
	Multiplier:     2.0,
	MaxEscalations: 4,
}

type escalationRecord struct {
	alert    domain.Alert
	channels []string
	level    int
	started  time.Time
	attempts []time.Time
	timer    *time.Timer
}

// Escalator retries delivery of alerts that no channel accepted, at
// exponentially growing intervals, until any channel succeeds or the level
// cap is reached.
type Escalator struct {
	mu       sync.Mutex
	cfg      EscalationConfig
	registry *Registry
	records  map[string]*escalationRecord
	stopped  bool
	log      *slog.Logger
}

// NewEscalator creates an Escalator over the given channel registry.
func NewEscalator(cfg EscalationConfig, registry *Registry) *Escalator {
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = DefaultEscalationConfig.BaseInterval
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultEscalationConfig.Multiplier
	}
	if cfg.MaxEscalations <= 0 {
		cfg.MaxEscalations = DefaultEscalationConfig.MaxEscalations
	}
	return &Escalator{
		cfg:      cfg,
		registry: registry,
		records:  make(map[string]*escalationRecord),
		log:      slog.Default(),
	}
}

// Escalate schedules redelivery of an alert. Repeat calls for the same
// alert type/priority reuse the existing record.
func (es *Escalator) Escalate(alert domain.Alert, channels []string) {
	key := alert.Type + "|" + string(alert.Priority)

	es.mu.Lock()
	defer es.mu.Unlock()

	if es.stopped {
		return
	}
	if _, exists := es.records[key]; exists {
		return
	}

	rec := &escalationRecord{
		alert:    alert,
		channels: channels,
		started:  time.Now(),
	}
	es.records[key] = rec
	es.scheduleLocked(key, rec)
}

// scheduleLocked arms the next attempt timer. Caller holds es.mu.
func (es *Escalator) scheduleLocked(key string, rec *escalationRecord) {
	delay := time.Duration(float64(es.cfg.BaseInterval) *
		math.Pow(es.cfg.Multiplier, float64(rec.level)))
	rec.timer = time.AfterFunc(delay, func() {
		es.attempt(key)
	})
}

func (es *Escalator) attempt(key string) {
	es.mu.Lock()
	rec, ok := es.records[key]
	if !ok || es.stopped {
		es.mu.Unlock()
		return
	}
	rec.attempts = append(rec.attempts, time.Now())
	es.mu.Unlock()

	metrics.EscalationAttempts.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	delivered := false
	for _, channelType := range rec.channels {
		if ch, ok := es.registry.Get(channelType); ok {
			if safeSend(ctx, ch, rec.alert) {
				delivered = true
				break
			}
		}
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if delivered {
		es.log.Info("escalated alert delivered",
			"alert", rec.alert.Type, "level", rec.level)
		delete(es.records, key)
		return
	}

	rec.level++
	if rec.level >= es.cfg.MaxEscalations {
		es.log.Error("alert undeliverable, dropping escalation",
			"alert", rec.alert.Type, "attempts", len(rec.attempts))
		delete(es.records, key)
		return
	}
	if !es.stopped {
		es.scheduleLocked(key, rec)
	}
}

// Pending returns the number of active escalation records.
func (es *Escalator) Pending() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.records)
}

// Stop cancels every pending escalation timer deterministically.
func (es *Escalator) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.stopped = true
	for key, rec := range es.records {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(es.records, key)
	}
}
