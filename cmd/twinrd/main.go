// Command twinrd is the digital twin runtime's reference entrypoint: it
// loads configuration, builds the dependency graph via
// internal/bootstrap, and serves three listeners — the HTTP/JSON
// transport, a gRPC health service, and a Prometheus metrics endpoint —
// in the shape "logger, listen, register, serve, shut down on signal".
// Shutdown is a plain signal.Notify path; pkg/graceful here is the Graph
// Facade's diagnostics wrapper, not a startup-orchestration helper, so
// config and bootstrap failures panic (no logger exists yet) and later
// startup failures are reported with a plain fatal log.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/edgetwin/runtime/internal/bootstrap"
	"github.com/edgetwin/runtime/internal/config"
	"github.com/edgetwin/runtime/internal/health"
	"github.com/edgetwin/runtime/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	deps, err := bootstrap.Initialize(cfg)
	if err != nil {
		panic("failed to initialize runtime: " + err.Error())
	}
	log := deps.Logger
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:         cfg.ListenAuthority,
		Handler:      deps.Handlers.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.Register(grpcServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	grpcAddr := grpcHealthAddr(cfg.ListenAuthority)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Fatal("failed to listen for grpc health", zap.String("address", grpcAddr), zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.MetricsAuthority)

	go func() {
		log.Info("http transport starting", zap.String("address", cfg.ListenAuthority))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("http transport stopped", zap.Error(serveErr))
		}
	}()

	go func() {
		log.Info("grpc health service starting", zap.String("address", grpcAddr))
		if serveErr := grpcServer.Serve(grpcListener); serveErr != nil {
			log.Error("grpc health service stopped", zap.Error(serveErr))
		}
	}()

	go func() {
		log.Info("metrics endpoint starting", zap.String("address", cfg.MetricsAuthority))
		if serveErr := metricsServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("metrics endpoint stopped", zap.Error(serveErr))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("http transport shutdown error", zap.Error(shutdownErr))
	}
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("metrics endpoint shutdown error", zap.Error(shutdownErr))
	}
	grpcServer.GracefulStop()
	if shutdownErr := deps.ShutdownTracing(shutdownCtx); shutdownErr != nil {
		log.Warn("tracer shutdown error", zap.Error(shutdownErr))
	}

	log.Info("digital twin runtime stopped")
}

// grpcHealthAddr derives the gRPC health listener's port from the HTTP
// listen authority by offsetting it by one, so a bare ":7700" yields
// ":7701" without requiring a second config key for what is, in this
// core, a secondary always-on health surface.
func grpcHealthAddr(listenAuthority string) string {
	host, port, err := net.SplitHostPort(listenAuthority)
	if err != nil {
		return ":7701"
	}
	n, convErr := strconv.Atoi(port)
	if convErr != nil {
		return net.JoinHostPort(host, "7701")
	}
	return net.JoinHostPort(host, strconv.Itoa(n+1))
}
