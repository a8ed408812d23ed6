// Package errlog is the append-only in-process event store for error and
// performance telemetry. History is ring-buffered; mirroring to the key/value
// store and the audit sink is best-effort and never fails the caller.
package errlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/infra/metrics"
	"github.com/planwise/authguard/internal/infra/store"
)

const (
	defaultMaxEntries      = 100
	defaultMaxContextBytes = 10 * 1024

	mirrorKeyErrors  = "authguard:logs:errors"
	mirrorKeyMetrics = "authguard:logs:metrics"
)

// Sink receives durable copies of log entries and fired alerts. The postgres
// audit repo implements it; failures are logged at warn and swallowed.
type Sink interface {
	SaveLogEntry(ctx context.Context, entry domain.LogEntry) error
	SaveMetric(ctx context.Context, metric domain.PerformanceMetric) error
}

// Config tunes the logger's buffers.
type Config struct {
	MaxEntries      int
	MaxContextBytes int
}

// Option configures a Logger.
type Option func(*Logger)

// WithStore attaches a key/value store for best-effort mirroring.
func WithStore(s store.Store) Option {
	return func(l *Logger) { l.store = s }
}

// WithSink attaches a durable audit sink.
func WithSink(s Sink) Option {
	return func(l *Logger) { l.sink = s }
}

// WithConfig overrides buffer limits.
func WithConfig(cfg Config) Option {
	return func(l *Logger) {
		if cfg.MaxEntries > 0 {
			l.maxEntries = cfg.MaxEntries
		}
		if cfg.MaxContextBytes > 0 {
			l.maxContextBytes = cfg.MaxContextBytes
		}
	}
}

// Logger owns the bounded error and performance histories. Mutation happens
// only through its methods; append-then-trim runs under one lock.
type Logger struct {
	mu              sync.RWMutex
	entries         []domain.LogEntry
	perf            []domain.PerformanceMetric
	maxEntries      int
	maxContextBytes int
	sessionID       string
	store           store.Store
	sink            Sink
	log             *slog.Logger
}

// New creates a Logger with a fresh session id.
func New(opts ...Option) *Logger {
	l := &Logger{
		maxEntries:      defaultMaxEntries,
		maxContextBytes: defaultMaxContextBytes,
		sessionID:       uuid.NewString(),
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SessionID returns the logger's session identifier.
func (l *Logger) SessionID() string { return l.sessionID }

// LogError records an error with sanitized context and returns the entry id.
func (l *Logger) LogError(err error, errContext map[string]any, severity domain.Severity) string {
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	if severity == "" {
		severity = domain.SeverityHigh
	}

	entry := domain.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Message:   message,
		Severity:  severity,
		Context:   SanitizeContext(errContext, l.maxContextBytes),
		SessionID: l.sessionID,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}
	l.mu.Unlock()

	l.emit(entry)
	metrics.LogEntriesTotal.WithLabelValues(string(severity)).Inc()
	l.mirror(mirrorKeyErrors, entry)
	if l.sink != nil {
		l.persist(func(ctx context.Context) error {
			return l.sink.SaveLogEntry(ctx, entry)
		})
	}

	return entry.ID
}

// LogPerformance records an operation's duration and outcome.
func (l *Logger) LogPerformance(operation string, duration time.Duration, success bool, data map[string]any) string {
	metric := domain.PerformanceMetric{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Operation: operation,
		Duration:  duration,
		Success:   success,
		Data:      SanitizeContext(data, l.maxContextBytes),
		SessionID: l.sessionID,
	}

	l.mu.Lock()
	l.perf = append(l.perf, metric)
	if len(l.perf) > l.maxEntries {
		l.perf = l.perf[len(l.perf)-l.maxEntries:]
	}
	l.mu.Unlock()

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	metrics.AuthOpsTotal.WithLabelValues(operation, outcome).Inc()
	metrics.AuthOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
	l.mirror(mirrorKeyMetrics, metric)
	if l.sink != nil {
		l.persist(func(ctx context.Context) error {
			return l.sink.SaveMetric(ctx, metric)
		})
	}

	return metric.ID
}

// Entries returns a copy of the error history, oldest first.
func (l *Logger) Entries() []domain.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// RecentErrors returns up to n most recent entries, newest last.
func (l *Logger) RecentErrors(n int) []domain.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.LogEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Stats aggregates performance metrics for one operation.
func (l *Logger) Stats(operation string) domain.OperationStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.OperationStats{Operation: operation}
	var total time.Duration
	for _, m := range l.perf {
		if m.Operation != operation {
			continue
		}
		stats.Count++
		total += m.Duration
		if m.Success {
			stats.Successes++
		}
	}
	if stats.Count > 0 {
		stats.SuccessRate = float64(stats.Successes) / float64(stats.Count)
		stats.AvgDuration = total / time.Duration(stats.Count)
	}
	return stats
}

// Snapshot summarizes current history for the alerting engine.
type Snapshot struct {
	TotalErrors   int
	BySeverity    map[domain.Severity]int
	Operations    map[string]domain.OperationStats
	OldestErrorAt time.Time
	NewestErrorAt time.Time
}

// Snapshot returns an aggregate view of the buffered history.
func (l *Logger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		TotalErrors: len(l.entries),
		BySeverity:  make(map[domain.Severity]int),
		Operations:  make(map[string]domain.OperationStats),
	}
	for _, e := range l.entries {
		snap.BySeverity[e.Severity]++
	}
	if len(l.entries) > 0 {
		snap.OldestErrorAt = l.entries[0].Timestamp
		snap.NewestErrorAt = l.entries[len(l.entries)-1].Timestamp
	}

	totals := make(map[string]time.Duration)
	for _, m := range l.perf {
		s := snap.Operations[m.Operation]
		s.Operation = m.Operation
		s.Count++
		if m.Success {
			s.Successes++
		}
		totals[m.Operation] += m.Duration
		snap.Operations[m.Operation] = s
	}
	for op, s := range snap.Operations {
		s.SuccessRate = float64(s.Successes) / float64(s.Count)
		s.AvgDuration = totals[op] / time.Duration(s.Count)
		snap.Operations[op] = s
	}

	return snap
}

func (l *Logger) emit(entry domain.LogEntry) {
	attrs := []any{"id", entry.ID, "severity", entry.Severity}
	switch entry.Severity {
	case domain.SeverityLow:
		l.log.Info(entry.Message, attrs...)
	case domain.SeverityMedium:
		l.log.Warn(entry.Message, attrs...)
	default:
		l.log.Error(entry.Message, attrs...)
	}
}

// mirror writes a best-effort copy to the key/value store. Store failures
// are logged at warn and never propagated.
func (l *Logger) mirror(key string, record any) {
	if l.store == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		l.log.Warn("failed to serialize log record for mirroring", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.store.PushTrim(ctx, key, string(payload), l.maxEntries); err != nil {
		l.log.Warn("log mirror write failed", "error", err)
	}
}

// persist runs one best-effort durable write with a bounded timeout.
func (l *Logger) persist(write func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := write(ctx); err != nil {
		l.log.Warn("audit sink write failed", "error", err)
	}
}
