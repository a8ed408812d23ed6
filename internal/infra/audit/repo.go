package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

// Repo persists telemetry records. It implements errlog.Sink.
type Repo struct {
	db *DB
}

// NewRepo creates a PostgreSQL audit repository.
func NewRepo(db *DB) *Repo {
	return &Repo{db: db}
}

// SaveLogEntry stores one error log entry.
func (r *Repo) SaveLogEntry(ctx context.Context, entry domain.LogEntry) error {
	query := `
		INSERT INTO error_logs (id, session_id, message, severity, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	contextJSON, err := json.Marshal(entry.Context)
	if err != nil {
		return fmt.Errorf("failed to encode log context: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SessionID,
		entry.Message,
		string(entry.Severity),
		contextJSON,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save log entry: %w", err)
	}
	return nil
}

// SaveMetric stores one performance metric.
func (r *Repo) SaveMetric(ctx context.Context, metric domain.PerformanceMetric) error {
	query := `
		INSERT INTO performance_metrics (id, session_id, operation, duration_ms, success, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	dataJSON, err := json.Marshal(metric.Data)
	if err != nil {
		return fmt.Errorf("failed to encode metric data: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		metric.ID,
		metric.SessionID,
		metric.Operation,
		metric.Duration.Milliseconds(),
		metric.Success,
		dataJSON,
		metric.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save metric: %w", err)
	}
	return nil
}

// SaveAlert stores one fired alert.
func (r *Repo) SaveAlert(ctx context.Context, alert domain.Alert) error {
	query := `
		INSERT INTO alerts (id, alert_type, priority, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	dataJSON, err := json.Marshal(alert.Data)
	if err != nil {
		return fmt.Errorf("failed to encode alert data: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		alert.ID,
		alert.Type,
		string(alert.Priority),
		alert.Message,
		dataJSON,
		alert.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// RecentErrors returns up to limit error entries for a session, newest first.
func (r *Repo) RecentErrors(ctx context.Context, sessionID string, limit int) ([]domain.LogEntry, error) {
	query := `
		SELECT id, session_id, message, severity, context, created_at
		FROM error_logs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var rows []struct {
		ID        string    `db:"id"`
		SessionID string    `db:"session_id"`
		Message   string    `db:"message"`
		Severity  string    `db:"severity"`
		Context   []byte    `db:"context"`
		CreatedAt time.Time `db:"created_at"`
	}

	if err := r.db.SelectContext(ctx, &rows, query, sessionID, limit); err != nil {
		return nil, fmt.Errorf("failed to query error logs: %w", err)
	}

	entries := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		entry := domain.LogEntry{
			ID:        row.ID,
			SessionID: row.SessionID,
			Message:   row.Message,
			Severity:  domain.Severity(row.Severity),
			Timestamp: row.CreatedAt,
		}
		if len(row.Context) > 0 {
			_ = json.Unmarshal(row.Context, &entry.Context)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FailureRate returns the failure ratio for an operation over the window.
func (r *Repo) FailureRate(ctx context.Context, operation string, window time.Duration) (float64, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE NOT success) AS failures
		FROM performance_metrics
		WHERE operation = $1 AND created_at > $2
	`

	var dest struct {
		Total    int `db:"total"`
		Failures int `db:"failures"`
	}
	since := time.Now().Add(-window)
	if err := r.db.GetContext(ctx, &dest, query, operation, since); err != nil {
		return 0, fmt.Errorf("failed to compute failure rate: %w", err)
	}
	if dest.Total == 0 {
		return 0, nil
	}
	return float64(dest.Failures) / float64(dest.Total), nil
}
