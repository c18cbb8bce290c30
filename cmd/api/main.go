package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"sneakerstore/internal/auth"
	"sneakerstore/internal/config"
	"sneakerstore/internal/db"
	"sneakerstore/internal/httpserver"
	"sneakerstore/internal/idempotency"
	"sneakerstore/internal/logger"
	"sneakerstore/internal/metrics"
	cartrepo "sneakerstore/internal/repository/cart"
	orderrepo "sneakerstore/internal/repository/order"
	productrepo "sneakerstore/internal/repository/product"
	userrepo "sneakerstore/internal/repository/user"
	cartsvc "sneakerstore/internal/service/cart"
	checkoutsvc "sneakerstore/internal/service/checkout"
	ordersvc "sneakerstore/internal/service/order"
	productsvc "sneakerstore/internal/service/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("api", "info", "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("api", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shopMetrics := metrics.New(registry)

	productRepo := productrepo.NewPostgres(dbpool, log)
	cartRepo := cartrepo.NewPostgres(dbpool, log)
	orderRepo := orderrepo.NewPostgres(dbpool, log)
	userRepo := userrepo.NewPostgres(dbpool, log)

	deps := httpserver.Deps{
		Auth:        auth.NewAuthenticator(cfg.JWTConfig, userRepo),
		Products:    productsvc.New(productRepo),
		Carts:       cartsvc.New(cartRepo, productRepo, shopMetrics),
		Checkout:    checkoutsvc.New(cartRepo, productRepo, userRepo, orderRepo, log, shopMetrics),
		Orders:      ordersvc.New(orderRepo),
		Metrics:     shopMetrics,
		Gatherer:    registry,
		CORSOrigins: cfg.CORSOrigins,
	}

	if cfg.RedisConfig.URL != "" {
		client, err := connectRedis(ctx, cfg.RedisConfig.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to redis")
		}
		defer client.Close()
		deps.Idempotency = idempotency.NewStore(client, cfg.IdempotencyTTL, log.With().Str("component", "idempotency").Logger())
		log.Info().Dur("ttl", cfg.IdempotencyTTL).Msg("idempotent checkout enabled")
	} else {
		log.Warn().Msg("SNEAKER_REDIS_URL not set, idempotent checkout disabled")
	}

	srv := httpserver.New(cfg.HTTPAddr, log, dbpool, deps)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr()).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("server stopped")
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
