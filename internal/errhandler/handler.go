// Package errhandler is the single entry point every auth operation invokes
// on failure. It composes the classifier, message catalog and retry policy
// into one structured decision and records the event.
package errhandler

import (
	"log/slog"
	"time"

	"github.com/planwise/authguard/internal/classify"
	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/errlog"
	"github.com/planwise/authguard/internal/infra/metrics"
	"github.com/planwise/authguard/internal/retry"
)

// Handler turns raw failures into ProcessedErrors. Safe for concurrent use.
type Handler struct {
	classifier *classify.Classifier
	catalog    classify.Catalog
	policies   *retry.Table
	backoff    retry.Backoff
	logger     *errlog.Logger
	log        *slog.Logger
}

// New creates a Handler with default classification, catalog and policies.
func New(logger *errlog.Logger) *Handler {
	return &Handler{
		classifier: classify.NewClassifier(),
		catalog:    classify.NewCatalog(),
		policies:   retry.NewTable(),
		backoff:    retry.DefaultBackoff,
		logger:     logger,
		log:        slog.Default(),
	}
}

// NewWith creates a Handler from explicit parts. Any nil part falls back to
// its default.
func NewWith(c *classify.Classifier, t *retry.Table, b retry.Backoff, logger *errlog.Logger) *Handler {
	h := New(logger)
	if c != nil {
		h.classifier = c
	}
	if t != nil {
		h.policies = t
	}
	if b != (retry.Backoff{}) {
		h.backoff = b
	}
	return h
}

// Handle classifies a raw failure and returns the full decision. It never
// returns nil and never panics: if the backoff path fails internally, the
// result degrades to the basic classification+message+policy decision.
func (h *Handler) Handle(raw *domain.RawError, ectx domain.ErrorContext) *domain.ProcessedError {
	if ectx.Timestamp.IsZero() {
		ectx.Timestamp = time.Now()
	}
	if ectx.Locale == "" {
		ectx.Locale = classify.DefaultLocale
	}

	kind := h.classifier.Classify(raw)
	metrics.ErrorsClassified.WithLabelValues(string(kind)).Inc()

	processed := h.buildDecision(kind, raw, ectx)

	if h.logger != nil {
		h.logger.LogError(processed, logContext(processed), processed.Severity)
	}

	return processed
}

// buildDecision assembles the ProcessedError, falling back to the basic
// path if the backoff computation panics.
func (h *Handler) buildDecision(kind domain.ErrorKind, raw *domain.RawError, ectx domain.ErrorContext) (out *domain.ProcessedError) {
	base := &domain.ProcessedError{
		Kind:        kind,
		Cause:       cause(raw),
		UserMessage: h.catalog.Message(kind, ectx.Locale),
		Severity:    domain.SeverityFor(kind),
		Context:     ectx,
	}

	info := h.policies.Info(kind, ectx.AttemptCount)
	base.CanRetry = info.CanRetry
	base.RetryAfterWait = info.AllowRetry && !info.CanRetry
	base.MaxRetries = info.MaxRetries

	// Malformed input classifies to UNKNOWN, which the policy table keeps
	// retryable; see DESIGN.md for the open product question on that row.

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("backoff computation failed, using basic decision", "panic", r)
			out = base
		}
	}()

	decision := h.backoff.ComputeDelay(ectx.AttemptCount, kind, ectx.TotalElapsed)
	base.RetryDelay = decision.Delay
	base.RemainingBudget = decision.Remaining
	if base.CanRetry && !decision.ShouldRetry {
		base.CanRetry = false
		base.RetryAfterWait = info.AllowRetry
	}
	return base
}

func cause(raw *domain.RawError) error {
	if raw == nil {
		return nil
	}
	return raw.Err
}

func logContext(p *domain.ProcessedError) map[string]any {
	ctx := map[string]any{
		"kind":      string(p.Kind),
		"operation": p.Context.Operation,
		"attempt":   p.Context.AttemptCount,
		"canRetry":  p.CanRetry,
	}
	if p.Context.Provider != "" {
		ctx["provider"] = string(p.Context.Provider)
	}
	for k, v := range p.Context.Extra {
		ctx[k] = v
	}
	return ctx
}
