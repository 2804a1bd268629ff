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
	"connecta/internal/notification"
	"connecta/internal/rate"
	"connecta/internal/repository"
	"connecta/internal/router"
	accountsvc "connecta/internal/service/account"
	authsvc "connecta/internal/service/auth"
	otpsvc "connecta/internal/service/otp"
	"connecta/internal/storage"
	"connecta/pkg/cache"
	"connecta/pkg/jwtutil"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, "auth-service")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbpool, err := pgxpool.New(context.Background(), cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer dbpool.Close()

	rdb := cache.New(cfg.RedisAddrs, cfg.RedisPass, false)
	defer rdb.Close()

	var dispatcher otpsvc.Dispatcher
	var producer events.Producer = events.NopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		kd, err := notification.NewKafkaDispatcher(cfg.KafkaBrokers)
		if err != nil {
			logger.Fatal("kafka dispatcher", zap.Error(err))
		}
		defer kd.Close()
		dispatcher = kd

		kp, err := events.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Fatal("kafka producer", zap.Error(err))
		}
		defer kp.Close()
		producer = kp
	} else {
		logger.Warn("no kafka brokers configured, notifications are log-only")
		dispatcher = notification.NewLogDispatcher(logger)
	}

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("upload dir", zap.Error(err))
	}

	accountRepo := repository.NewAccountRepo(dbpool)
	limiter := rate.NewLimiter(rdb, cfg.OTP_Window, cfg.OTP_MaxPerWindow, cfg.OTP_Cooldown)
	issuer := jwtutil.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer)

	otp := otpsvc.NewService(rdb, limiter, dispatcher, cfg.OTP_TTL, logger)
	accounts := accountsvc.NewService(accountRepo, producer, cfg.StoreTimeout, logger)
	auth := authsvc.NewService(accountRepo, otp, issuer, cfg.StoreTimeout)

	h := handler.NewAuthHandler(accounts, auth, store, logger)

	r := chi.NewRouter()
	router.SetupAuthRoutes(r, h, issuer, store.Dir())

	srv := &http.Server{
		Addr:    cfg.AuthHTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info("auth service listening", zap.String("addr", cfg.AuthHTTPAddr))
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
