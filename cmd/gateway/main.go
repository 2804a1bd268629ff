package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"connecta/internal/config"
	"connecta/internal/gateway"
	"connecta/internal/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, "gateway")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	gw, err := gateway.New(cfg.AuthServiceURL, cfg.UserServiceURL, logger)
	if err != nil {
		logger.Fatal("gateway", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.GatewayAddr,
		Handler: gw,
	}

	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.GatewayAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
