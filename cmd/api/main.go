package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"vocalys/internal/analysis"
	"vocalys/internal/cache"
	"vocalys/internal/config"
	"vocalys/internal/httpserver"
	"vocalys/internal/logging"
	"vocalys/internal/observability"
	"vocalys/internal/providers/elevenlabs"
	"vocalys/internal/service"
	"vocalys/internal/store/pg"
	"vocalys/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadAPI()
	logging.Init("api", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{
		MaxConns:          cfg.DBPoolMaxConns,
		MinConns:          cfg.DBPoolMinConns,
		MaxConnLifetime:   cfg.DBPoolMaxConnLifetime,
		MaxConnIdleTime:   cfg.DBPoolMaxConnIdleTime,
		HealthCheckPeriod: cfg.DBPoolHealthCheckPeriod,
	})
	if err != nil {
		slog.Error("api db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	dbStore := pg.New(db)

	lex := analysis.DefaultLexicon()
	if cfg.LexiconPath != "" {
		lex, err = analysis.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			slog.Error("lexicon load failed", "err", err, "path", cfg.LexiconPath)
			os.Exit(1)
		}
	}

	observability.Register(prometheus.DefaultRegisterer)

	gateway := &elevenlabs.Client{
		APIKey:  cfg.ElevenLabsAPIKey,
		AgentID: cfg.ElevenLabsAgentID,
		HTTP:    &http.Client{Timeout: cfg.GatewayTimeout},
		BaseURL: cfg.ElevenLabsBaseURL,
	}

	relay := &service.Relay{
		Store:    dbStore,
		Gateway:  gateway,
		Analyzer: analysis.New(lex),
		Limiter:  rate.NewLimiter(rate.Limit(cfg.GatewayRPS), cfg.GatewayBurst),
		Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "elevenlabs",
			MaxRequests: 3,
			Timeout:     20 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
		}),
		CallID:         util.NewCallID,
		SummaryID:      util.NewSummaryID,
		GatewayTimeout: cfg.GatewayTimeout,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		relay.Cache = cache.NewStatsCache(rdb, cfg.StatsCacheTTL)
		slog.Info("stats cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.StatsCacheTTL)
	}

	s := httpserver.New()
	api := &httpserver.API{
		Relay:         relay,
		Directory:     dbStore,
		BeneficiaryID: util.NewBeneficiaryID,
	}
	api.Register(s.Mux)

	webhook := &httpserver.Webhook{Relay: relay, Secret: cfg.ElevenLabsWebhookSecret}
	webhook.Register(s.Mux)

	s.Mux.HandleFunc("/healthz", httpserver.Healthz()).Methods(http.MethodGet)
	s.Mux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second, func(ctx context.Context) error {
		return db.Ping(ctx)
	})).Methods(http.MethodGet)

	handler := httpserver.RequestID(httpserver.Logging(httpserver.Metrics(observability.APIRequests)(s.Mux)))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: promhttp.Handler()}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("api shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("metrics listening", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "err", err)
		}
	}()

	slog.Info("api listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("api server failed", "err", err)
		os.Exit(1)
	}
}
