package grpcapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Probe reports whether one backing dependency is usable.
type Probe func(ctx context.Context) error

// HealthHandler serves grpc.health.v1 for liveness and readiness probes.
// Each probe is exposed as its own service name; the empty service name is
// SERVING only while every probe passes.
type HealthHandler struct {
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	probes map[string]Probe
}

func NewHealthHandler(interval time.Duration, logger *slog.Logger) *HealthHandler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthHandler{
		server:   health.NewServer(),
		interval: interval,
		timeout:  3 * time.Second,
		logger:   logger,
		probes:   make(map[string]Probe),
	}
}

func (h *HealthHandler) AddProbe(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
	h.server.SetServingStatus(name, healthpb.HealthCheckResponse_UNKNOWN)
}

// Register attaches the health and reflection services to s.
func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
	reflection.Register(s)
}

// Run probes immediately and then every interval until ctx is done.
func (h *HealthHandler) Run(ctx context.Context) {
	h.CheckNow(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.CheckNow(ctx)
		}
	}
}

// CheckNow runs every probe once and publishes the results.
func (h *HealthHandler) CheckNow(ctx context.Context) {
	h.mu.Lock()
	probes := make(map[string]Probe, len(h.probes))
	for name, p := range h.probes {
		probes[name] = p
	}
	h.mu.Unlock()

	overall := healthpb.HealthCheckResponse_SERVING
	for name, probe := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := probe(probeCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			h.logger.Warn("health probe failed", "probe", name, "error", err)
		}
		h.server.SetServingStatus(name, status)
	}
	h.server.SetServingStatus("", overall)
}

// Shutdown flips every service to NOT_SERVING so load balancers drain first.
func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}
