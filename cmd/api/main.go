package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/hci-catalog/internal/config"
	"github.com/crucial707/hci-catalog/internal/logging"
	"github.com/crucial707/hci-catalog/internal/reconcile"
	"github.com/crucial707/hci-catalog/internal/tracing"
	"go.uber.org/zap"
)

func main() {

	// Load configuration
	cfg := config.Load()

	logger := logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel, File: cfg.LogFile})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "hci-catalog-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Connect to the store FIRST
	d, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open stores", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStores()
	logger.Info("stores ready", zap.String("driver", cfg.StoreDriver))

	if cfg.ReconcileCron != "" {
		rec := reconcile.New(d.Products, d.Audit, logger)
		go func() {
			if err := reconcile.Schedule(ctx, cfg.ReconcileCron, rec); err != nil {
				logger.Error("reconcile schedule", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(d, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	// Start server LAST
	logger.Info("starting server", zap.String("port", cfg.Port), zap.Bool("tls", cfg.TLSEnabled()))
	if cfg.TLSEnabled() {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
	logger.Info("server stopped")
}
