// Package monitor tracks backend reachability with periodic and on-demand
// probes, and publishes status changes to subscribers.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/infra/metrics"
)

// Config tunes probing behavior.
type Config struct {
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxLatency    time.Duration `yaml:"max_latency"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Interval:      30 * time.Second,
	Timeout:       5 * time.Second,
	RetryAttempts: 3,
	RetryDelay:    500 * time.Millisecond,
	MaxLatency:    3 * time.Second,
}

// Monitor owns the connection status state machine. Status transitions only
// through CheckConnectivity; CHECKING is a transient state and is not
// announced on the status feed.
type Monitor struct {
	mu      sync.Mutex
	status  domain.ConnectionStatus
	settled domain.ConnectionStatus
	running bool
	cancel  context.CancelFunc

	prober Prober
	cfg    Config
	log    *slog.Logger

	statusFeed *Feed[domain.StatusChange]
	checkFeed  *Feed[domain.CheckResult]
}

// New creates a Monitor in the UNKNOWN state.
func New(prober Prober, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultConfig.RetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig.RetryDelay
	}
	if cfg.MaxLatency <= 0 {
		cfg.MaxLatency = DefaultConfig.MaxLatency
	}
	return &Monitor{
		status:     domain.StatusUnknown,
		settled:    domain.StatusUnknown,
		prober:     prober,
		cfg:        cfg,
		log:        slog.Default(),
		statusFeed: NewFeed[domain.StatusChange](),
		checkFeed:  NewFeed[domain.CheckResult](),
	}
}

// Status returns the current status.
func (m *Monitor) Status() domain.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SubscribeStatus registers a listener for settled status changes.
func (m *Monitor) SubscribeStatus(fn func(domain.StatusChange)) *Subscription {
	return m.statusFeed.Subscribe(fn)
}

// SubscribeChecks registers a listener invoked after every check.
func (m *Monitor) SubscribeChecks(fn func(domain.CheckResult)) *Subscription {
	return m.checkFeed.Subscribe(fn)
}

// CheckConnectivity performs one availability probe with retries plus a
// latency sample, updates the status and publishes events. The reported
// latency covers the successful attempt alone. It never returns an error:
// an unreachable backend is a result, not a failure.
func (m *Monitor) CheckConnectivity(ctx context.Context) domain.CheckResult {
	m.mu.Lock()
	m.status = domain.StatusChecking
	m.mu.Unlock()

	latency, err := m.probeWithRetries(ctx)

	result := domain.CheckResult{
		Available: err == nil,
		Latency:   latency,
		Err:       err,
		Timestamp: time.Now(),
	}
	if err == nil {
		result.Status = domain.StatusConnected
		metrics.ConnectionUp.Set(1)
		metrics.ProbeLatency.Observe(latency.Seconds())
	} else {
		result.Status = domain.StatusDisconnected
		metrics.ConnectionUp.Set(0)
	}

	m.mu.Lock()
	previous := m.settled
	m.status = result.Status
	m.settled = result.Status
	m.mu.Unlock()

	if previous != result.Status {
		metrics.StatusChangesTotal.WithLabelValues(string(result.Status)).Inc()
		m.statusFeed.Publish(domain.StatusChange{
			From:      previous,
			To:        result.Status,
			Timestamp: result.Timestamp,
		})
	}
	m.checkFeed.Publish(result)

	return result
}

// probeWithRetries runs the probe under a per-attempt timeout, backing off
// exponentially between attempts. The returned duration times only the
// successful attempt; backoff sleeps and failed attempts are not latency.
// The last error is returned once every attempt has failed.
func (m *Monitor) probeWithRetries(ctx context.Context) (time.Duration, error) {
	backoff := retry.WithMaxRetries(
		uint64(m.cfg.RetryAttempts-1),
		retry.NewExponential(m.cfg.RetryDelay),
	)

	var latency time.Duration
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()

		start := time.Now()
		if err := m.prober.Probe(attemptCtx); err != nil {
			return retry.RetryableError(err)
		}
		latency = time.Since(start)
		return nil
	})
	return latency, err
}

// StartMonitoring runs an immediate check, then checks on the configured
// interval until ctx is cancelled or StopMonitoring is called. Starting an
// already-running monitor is a warning no-op.
func (m *Monitor) StartMonitoring(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.log.Warn("connection monitoring already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(runCtx)
}

func (m *Monitor) run(ctx context.Context) {
	m.CheckConnectivity(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A check in flight when monitoring stops completes on its
			// own; its result is simply discarded with the loop.
			m.CheckConnectivity(ctx)
		}
	}
}

// StopMonitoring cancels the periodic loop and all pending timers.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.cancel()
	m.cancel = nil
	m.running = false
}

// Latency takes the given number of probe samples and aggregates them. It
// fails only if every sample errors.
func (m *Monitor) Latency(ctx context.Context, samples int) (domain.LatencyReport, error) {
	if samples <= 0 {
		samples = 3
	}

	var (
		report  domain.LatencyReport
		total   time.Duration
		lastErr error
	)
	for i := 0; i < samples; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		start := time.Now()
		err := m.prober.Probe(attemptCtx)
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			lastErr = err
			continue
		}

		if report.Samples == 0 || elapsed < report.Min {
			report.Min = elapsed
		}
		if elapsed > report.Max {
			report.Max = elapsed
		}
		total += elapsed
		report.Samples++
	}

	if report.Samples == 0 {
		return domain.LatencyReport{}, lastErr
	}
	report.Average = total / time.Duration(report.Samples)
	return report, nil
}

// AssessQuality buckets a latency into a deterministic grade.
func (m *Monitor) AssessQuality(latency time.Duration) domain.ConnectionQuality {
	switch {
	case latency < 100*time.Millisecond:
		return domain.QualityExcellent
	case latency < 300*time.Millisecond:
		return domain.QualityGood
	case latency < time.Second:
		return domain.QualityFair
	case latency < m.cfg.MaxLatency:
		return domain.QualityPoor
	default:
		return domain.QualityVeryPoor
	}
}
