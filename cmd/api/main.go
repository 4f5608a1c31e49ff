package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/tidex114/est-backend/internal/app"
	"github.com/tidex114/est-backend/internal/clock"
	"github.com/tidex114/est-backend/internal/config"
	"github.com/tidex114/est-backend/internal/events"
	"github.com/tidex114/est-backend/internal/identity"
	"github.com/tidex114/est-backend/internal/logging"
	"github.com/tidex114/est-backend/internal/storage/postgres"
	redisstore "github.com/tidex114/est-backend/internal/storage/redis"
	transporthttp "github.com/tidex114/est-backend/internal/transport/http"
	"github.com/tidex114/est-backend/migrations"
)

func main() {
	if err := run(); err != nil {
		logging.Base().Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfgDir := os.Getenv("ESTAPI_CONFIG_DIR")
	if cfgDir == "" {
		cfgDir = "configs"
	}
	cfg, err := config.Load(cfgDir, os.Getenv("ESTAPI_ENV"))
	if err != nil {
		return err
	}

	log := logging.Init(cfg.App.Name, cfg.App.LogFile)

	startupCtx, cancel := context.WithTimeout(context.Background(), postgres.ConnectTimeout)
	defer cancel()

	pool, err := postgres.NewPool(startupCtx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	repo := postgres.NewOfferRepository(pool)
	verifier := identity.NewVerifier(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.Audience)

	var opts []app.OfferServiceOption

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(startupCtx).Err(); err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, app.WithIdempotencyStore(redisstore.NewIdempotencyStore(rdb, cfg.Idempotency.TTL)))
		log.Info("idempotency store enabled", "addr", cfg.Redis.Addr)
	} else {
		log.Warn("redis.addr not set, reservation idempotency disabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer pub.Close()
		opts = append(opts, app.WithEventPublisher(pub))
		log.Info("event publisher enabled", "topic", cfg.Kafka.Topic)
	} else {
		log.Warn("kafka.brokers not set, event publishing disabled")
	}

	svc := app.NewOfferService(repo, clock.NewSystem(), logging.New("offers"), opts...)

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Catalog:     svc,
		Reserver:    svc,
		Partner:     svc,
		Verifier:    verifier,
		Logger:      logging.New("http"),
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	server := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	log.Info("api listening", "addr", cfg.App.HTTPAddr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		log.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
