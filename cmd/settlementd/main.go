package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"surveypay-settlement-go/internal/api"
	"surveypay-settlement-go/internal/common"
	"surveypay-settlement-go/internal/config"
	"surveypay-settlement-go/internal/reconciler"

	"go.uber.org/zap"
)

func main() {
	listenAddr := flag.String("listen", "", "Listen address override (default: LISTEN_ADDR or :8080)")
	noReconciler := flag.Bool("no-reconciler", false, "Disable the background pending-payment reconciler")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting settlement service")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Reconciler.Enabled && !*noReconciler {
		rec := reconciler.New(services.DbService, services.GatewayService, services.Engine, cfg.Reconciler)
		go rec.Run(ctx)
	} else {
		zap.L().Info("Reconciler disabled")
	}

	server := api.NewServer(cfg.Server.ListenAddr, services.Engine, services.Responses)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zap.L().Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zap.L().Error("HTTP server failed", zap.Error(err))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
	} else {
		zap.L().Info("Server stopped gracefully")
	}
}
