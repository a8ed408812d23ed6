package alerting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/infra/metrics"
)

const defaultHistorySize = 50

// Engine evaluates rules on a fixed interval, independent of any auth call.
type Engine struct {
	mu        sync.Mutex
	rules     []Rule
	registry  *Registry
	escalator *Escalator
	collect   func() Snapshot
	interval  time.Duration

	history     []domain.Alert
	historySize int
	lastFired   map[string]time.Time
	now         func() time.Time

	log *slog.Logger
}

// EngineConfig assembles an Engine.
type EngineConfig struct {
	Rules       []Rule
	Registry    *Registry
	Escalator   *Escalator
	Collect     func() Snapshot
	Interval    time.Duration
	HistorySize int
}

// NewEngine creates an evaluation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHistorySize
	}
	return &Engine{
		rules:       cfg.Rules,
		registry:    cfg.Registry,
		escalator:   cfg.Escalator,
		collect:     cfg.Collect,
		interval:    cfg.Interval,
		historySize: cfg.HistorySize,
		lastFired:   make(map[string]time.Time),
		now:         time.Now,
		log:         slog.Default(),
	}
}

// Run evaluates rules on the configured interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.EvaluateNow(ctx)
		}
	}
}

// EvaluateNow runs one evaluation pass. Exposed for on-demand checks.
func (e *Engine) EvaluateNow(ctx context.Context) {
	if e.collect == nil {
		return
	}
	snapshot := e.collect()

	for i := range e.rules {
		e.evaluateRule(ctx, &e.rules[i], snapshot)
	}
}

func (e *Engine) evaluateRule(ctx context.Context, rule *Rule, snapshot Snapshot) {
	now := e.now()

	e.mu.Lock()
	if last, ok := e.lastFired[rule.Name]; ok && rule.Cooldown > 0 && now.Sub(last) < rule.Cooldown {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if rule.Condition == nil || !rule.Condition(snapshot) {
		return
	}

	alert := domain.Alert{
		ID:        uuid.NewString(),
		Type:      rule.Name,
		Priority:  rule.Priority,
		Timestamp: now,
		Data: map[string]any{
			"connection":   string(snapshot.Connection),
			"total_errors": snapshot.Log.TotalErrors,
		},
	}
	if rule.Message != nil {
		alert.Message = rule.Message(snapshot)
	}

	e.mu.Lock()
	e.lastFired[rule.Name] = now
	e.history = append(e.history, alert)
	if len(e.history) > e.historySize {
		e.history = e.history[len(e.history)-e.historySize:]
	}
	e.mu.Unlock()

	metrics.AlertsFired.WithLabelValues(rule.Name, string(rule.Priority)).Inc()

	anyFailed := false
	for _, channelType := range rule.Channels {
		if !e.registry.Dispatch(ctx, channelType, alert) {
			anyFailed = true
			e.log.Warn("alert delivery failed",
				"alert", alert.Type, "channel", channelType)
		}
	}

	if anyFailed && rule.Escalate && e.escalator != nil {
		e.escalator.Escalate(alert, rule.Channels)
	}
}

// History returns a copy of the bounded alert history, oldest first.
func (e *Engine) History() []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Alert, len(e.history))
	copy(out, e.history)
	return out
}
