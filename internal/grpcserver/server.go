// Package grpcserver publishes the cargo store's reachability over grpc.health.v1.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// ServiceName is the health service name reported alongside the overall ("") status.
	ServiceName = "cargo.Cargo"

	defaultCheckInterval = 15 * time.Second
	defaultCheckTimeout  = 2 * time.Second
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the health service in step with store pings.
type HealthReporter struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	lastSeen healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthReporter constructs a reporter. Non-positive interval uses the default.
func NewHealthReporter(pinger Pinger, interval time.Duration, logger *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := &HealthReporter{
		health:   health.NewServer(),
		pinger:   pinger,
		interval: interval,
		timeout:  defaultCheckTimeout,
		logger:   logger,
		lastSeen: healthpb.HealthCheckResponse_UNKNOWN,
	}
	reporter.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return reporter
}

// Register attaches the health service to server.
func (reporter *HealthReporter) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, reporter.health)
}

// Check pings once and publishes the result.
func (reporter *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, reporter.timeout)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := reporter.pinger.Ping(pingCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		reporter.logger.Warn("store ping failed", zap.Error(err))
	}
	reporter.setStatus(status)
	return status
}

// Watch checks at every interval until ctx is done, then marks every service NOT_SERVING.
func (reporter *HealthReporter) Watch(ctx context.Context) {
	ticker := time.NewTicker(reporter.interval)
	defer ticker.Stop()
	reporter.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			reporter.health.Shutdown()
			return
		case <-ticker.C:
			reporter.Check(ctx)
		}
	}
}

func (reporter *HealthReporter) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	reporter.mu.Lock()
	changed := reporter.lastSeen != status
	reporter.lastSeen = status
	reporter.mu.Unlock()
	if !changed {
		return
	}
	reporter.health.SetServingStatus("", status)
	reporter.health.SetServingStatus(ServiceName, status)
	reporter.logger.Info("health status changed", zap.String("status", status.String()))
}

// Serve runs server on listener until ctx is cancelled, then stops gracefully.
func Serve(ctx context.Context, listener net.Listener, server *grpc.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server starting", zap.String("listen_addr", listener.Addr().String()))
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logger.Info("gRPC shutdown requested")
		server.GracefulStop()
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			return nil
		}
		return serveErr
	}
}
