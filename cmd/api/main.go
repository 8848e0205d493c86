package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/config"
	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/adyen"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/connector/stripe"
	httpx "paymentswitch/internal/http"
	"paymentswitch/internal/lock"
	"paymentswitch/internal/metrics"
	"paymentswitch/internal/outgoing"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/services/webhook"
	"paymentswitch/internal/store/memory"
	"paymentswitch/internal/store/postgres"
	"paymentswitch/internal/store/repositories"
	"paymentswitch/internal/ucs"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: postgres, or in-memory for local development
	var store repositories.Store
	if cfg.DB.DSN != "" {
		pool := postgres.MustOpen(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		store = postgres.NewStore(pool)
	} else {
		log.Warn().Msg("DB_DSN not set, using in-memory store")
		store = memory.New()
	}

	// Locks and shared cache: redis when configured
	var (
		locker lock.Locker = lock.NewMemory()
		shared cache.Store = cache.NewMemory()
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed")
		}
		locker = lock.NewRedis(rdb)
		shared = cache.NewRedis(rdb, cfg.Redis.Prefix)
	}

	var notifier outgoing.Notifier = outgoing.LogNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		kn := outgoing.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kn.Close()
		notifier = kn
	}

	sender := base.NewHTTPClient("connector", cfg.Connectors.HTTPTimeout)

	var ucsClient ucs.Client
	if cfg.UCS.Enabled {
		ucsClient = ucs.NewHTTPClient(base.NewHTTPClient("ucs", cfg.Connectors.HTTPTimeout), cfg.UCS.BaseURL, cfg.UCS.APIKey)
	}

	registry := connector.NewRegistry()
	registry.Register(adyen.New(adyen.Config{
		CheckoutURL: cfg.Connectors.AdyenCheckout,
		PayoutURL:   cfg.Connectors.AdyenPayout,
		DisputeURL:  cfg.Connectors.AdyenDispute,
	}))
	registry.Register(stripe.New(cfg.Connectors.StripeBaseURL, cfg.Connectors.StripeTolerance))

	payments := paymentsvc.NewService(store, sender, locker, notifier, ucsClient, paymentsvc.Config{
		LockTTL:  cfg.Webhooks.LockTTL,
		LockWait: cfg.Webhooks.LockWait,
	})
	secrets := webhook.NewSecrets(shared, cfg.Sec.AESKey, cfg.Webhooks.SecretCacheTTL)
	gate := webhook.NewGate(shared)
	counters := metrics.NewWebhooks()

	pipeline := webhook.NewPipeline(webhook.Deps{
		Registry: registry,
		Store:    store,
		Payments: payments,
		Sender:   sender,
		UCS:      ucsClient,
		Notifier: notifier,
		Cache:    shared,
		Secrets:  secrets,
		Gate:     gate,
		Metrics:  counters,
	}, webhook.Config{
		AckOnNotFound:        cfg.Webhooks.AckOnNotFound,
		OutboundVerification: cfg.Webhooks.OutboundVerification,
		SecretCacheTTL:       cfg.Webhooks.SecretCacheTTL,
		PollStatusTTL:        cfg.Webhooks.PollStatusTTL,
		UCS: webhook.UCSConfig{
			Enabled:          cfg.UCS.Enabled,
			Connectors:       cfg.UCS.Connectors,
			ShadowConnectors: cfg.UCS.ShadowConnectors,
			Merchants:        cfg.UCS.Merchants,
		},
	})

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		AdminToken: cfg.Sec.AdminToken,
		Pipeline:   pipeline,
		Registry:   registry,
		Gate:       gate,
		Secrets:    secrets,
		Metrics:    counters,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Strs("connectors", registry.Names()).Msgf("payment switch listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
