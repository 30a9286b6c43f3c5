package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomasB/ip2geo/internal/backend"
	"github.com/TomasB/ip2geo/internal/config"
	grpchandler "github.com/TomasB/ip2geo/internal/handler/grpc"
	"github.com/TomasB/ip2geo/internal/handler/health"
	"github.com/TomasB/ip2geo/internal/handler/lookup"
	"github.com/TomasB/ip2geo/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	gogrpc "google.golang.org/grpc"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logLevel := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stdout, logLevel)
	slog.SetDefault(logger)

	slog.Info("service starting", "log_level", logLevel.String(), "backend", cfg.Backend)

	// Set Gin mode based on log level
	if logLevel == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	eng, b, err := backend.NewEngine(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open lookup backend", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	defer b.Close()

	router := gin.New()
	router.Use(logging.GinLogger(logger))
	router.Use(gin.Recovery())

	// Register health endpoints
	healthHandler := health.NewHandler(b.Name, b.Ready)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Register API endpoints
	lookup.NewHandler(eng).Register(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("http server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	grpcSrv := gogrpc.NewServer()
	grpchandler.Register(grpcSrv, grpchandler.NewHandler(eng))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("failed to listen for gRPC", "port", cfg.GRPCPort, "error", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("grpc server started", "port", cfg.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("grpc server stopped", "error", err)
		}
	}()

	startPprof(cfg.PprofAddr)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("service shutting down")
	stop()

	// Graceful shutdown with 30s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		grpcSrv.Stop()
		os.Exit(1)
	}

	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}

	slog.Info("service stopped", "stats", eng.Stats())
}
