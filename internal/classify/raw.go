package classify

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/planwise/authguard/internal/core/domain"
)

// RawCarrier is implemented by errors that already carry a structured
// RawError (the HTTP provider boundary produces these).
type RawCarrier interface {
	Raw() *domain.RawError
}

// FromError adapts an arbitrary error into a RawError for classification.
// Nil stays nil; the classifier treats that as UNKNOWN.
func FromError(err error) *domain.RawError {
	if err == nil {
		return nil
	}

	var carrier RawCarrier
	if errors.As(err, &carrier) {
		if raw := carrier.Raw(); raw != nil {
			return raw
		}
	}

	raw := &domain.RawError{Message: err.Error(), Err: err}

	// Transport-level failures have well-known shapes; surface them as
	// codes so classification does not depend on message text alone.
	if errors.Is(err, context.DeadlineExceeded) {
		raw.Code = "timeout"
		return raw
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		raw.Code = "timeout"
		return raw
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		raw.Code = "network"
		return raw
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		raw.Code = "network"
		return raw
	}

	return raw
}
