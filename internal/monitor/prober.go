package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Prober performs one availability check against the auth backend.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber probes an HTTP health endpoint.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober for the given health URL.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Probe implements Prober. Any non-2xx response counts as unavailable.
func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe: http %d", resp.StatusCode)
	}
	return nil
}

// GRPCProber probes a backend exposing the standard gRPC health service.
type GRPCProber struct {
	client  healthpb.HealthClient
	service string
}

// NewGRPCProber creates a prober over an established connection. service may
// be empty to query overall server health.
func NewGRPCProber(conn grpc.ClientConnInterface, service string) *GRPCProber {
	return &GRPCProber{
		client:  healthpb.NewHealthClient(conn),
		service: service,
	}
}

// Probe implements Prober.
func (p *GRPCProber) Probe(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return fmt.Errorf("grpc health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("grpc health status: %s", resp.GetStatus())
	}
	return nil
}
