package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"connecta/internal/config"
	"connecta/internal/events"
	"connecta/internal/handler"
	"connecta/internal/logging"
	"connecta/internal/repository"
	"connecta/internal/router"
	relationshipsvc "connecta/internal/service/relationship"
	"connecta/pkg/jwtutil"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, "user-service")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbpool, err := pgxpool.New(context.Background(), cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer dbpool.Close()

	var producer events.Producer = events.NopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Fatal("kafka producer", zap.Error(err))
		}
		defer kp.Close()
		producer = kp
	}

	relRepo := repository.NewRelationshipRepo(dbpool)
	issuer := jwtutil.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer)
	rel := relationshipsvc.NewService(relRepo, producer, cfg.BlockRemovesFollow, cfg.StoreTimeout, logger)

	h := handler.NewRelationshipHandler(rel, logger)

	r := chi.NewRouter()
	router.SetupUserRoutes(r, h, issuer)

	srv := &http.Server{
		Addr:    cfg.UserHTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info("user service listening", zap.String("addr", cfg.UserHTTPAddr))
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
