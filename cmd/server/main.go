package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"screenguard/internal/coverage"
	cwlhandler "screenguard/internal/customwatchlist/handler"
	cwlservice "screenguard/internal/customwatchlist/service"
	cwlstore "screenguard/internal/customwatchlist/store"
	"screenguard/internal/platform/config"
	"screenguard/internal/platform/httpserver"
	"screenguard/internal/platform/logger"
	platformredis "screenguard/internal/platform/redis"
	rthandler "screenguard/internal/realtime/handler"
	rtservice "screenguard/internal/realtime/service"
	"screenguard/internal/screening/cache"
	"screenguard/internal/screening/engine"
	screeninghandler "screenguard/internal/screening/handler"
	"screenguard/internal/screening/metrics"
	"screenguard/internal/screening/phonetic"
	"screenguard/internal/screening/ports"
	"screenguard/internal/screening/similarity"
	historystore "screenguard/internal/screening/store/history"
	watchliststore "screenguard/internal/screening/store/watchlist"
	wlhandler "screenguard/internal/whitelist/handler"
	wlservice "screenguard/internal/whitelist/service"
	wlstore "screenguard/internal/whitelist/store"
	"screenguard/pkg/casefeed"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("postgres ping failed", "error", err)
		os.Exit(1)
	}

	var screeningCache ports.ScreeningCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		screeningCache = cache.NewRedis(redisClient.Client)
	} else {
		log.Warn("redis not configured, screening cache disabled")
	}

	var publisher casefeed.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := casefeed.NewKafkaPublisher(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.Topic, casefeed.WithLogger(log))
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		log.Warn("kafka not configured, case feed disabled")
	}

	screeningMetrics := metrics.New()
	watchlist := watchliststore.NewPostgres(db)
	history := historystore.NewPostgres(db)

	engineCfg := engine.Config{
		SimilarityThreshold: cfg.Screening.SimilarityThreshold,
		ConfidenceThreshold: cfg.Screening.ConfidenceThreshold,
		CacheEnabled:        cfg.Screening.CacheEnabled && screeningCache != nil,
		CacheTTL:            cfg.Screening.CacheTTL,
		StoreTimeout:        cfg.Screening.StoreTimeout,
	}
	eng, err := engine.New(phonetic.NewEncoder(), similarity.NewScorer(), watchlist, engineCfg,
		engine.WithLogger(log),
		engine.WithMetrics(screeningMetrics),
		engine.WithCache(screeningCache),
		engine.WithHistory(history),
	)
	if err != nil {
		log.Error("invalid screening configuration", "error", err)
		os.Exit(1)
	}

	whitelistSvc, err := wlservice.New(wlstore.NewPostgres(db),
		wlservice.WithLogger(log),
		wlservice.WithCache(screeningCache),
		wlservice.WithCacheTTL(cfg.Screening.CacheTTL),
	)
	if err != nil {
		log.Error("invalid whitelist configuration", "error", err)
		os.Exit(1)
	}
	customSvc := cwlservice.New(cwlstore.NewPostgres(db),
		cwlservice.WithLogger(log),
		cwlservice.WithCache(screeningCache),
	)
	coverageSvc := coverage.New(watchlist, history)

	rtOpts := []rtservice.Option{
		rtservice.WithLogger(log),
		rtservice.WithMetrics(screeningMetrics),
	}
	if publisher != nil {
		rtOpts = append(rtOpts, rtservice.WithPublisher(publisher))
	}
	realtimeSvc := rtservice.New(eng, whitelistSvc, customSvc, rtservice.Config{
		Enabled:              cfg.Realtime.Enabled,
		BlockOnMatch:         cfg.Realtime.BlockOnMatch,
		ScreenMerchants:      cfg.Realtime.ScreenMerchants,
		ScreenCounterparties: cfg.Realtime.ScreenCounterparties,
	}, rtOpts...)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/v1", func(r chi.Router) {
		screeninghandler.New(eng, coverageSvc, log).Register(r)
		wlhandler.New(whitelistSvc, log).Register(r)
		cwlhandler.New(customSvc, log).Register(r)
		rthandler.New(realtimeSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting screenguard", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
