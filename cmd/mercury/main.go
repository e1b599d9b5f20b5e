package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/boompicks/pickengine/internal/cache"
	"github.com/boompicks/pickengine/internal/config"
	"github.com/boompicks/pickengine/internal/httpapi"
	"github.com/boompicks/pickengine/internal/lock"
	"github.com/boompicks/pickengine/internal/logging"
	"github.com/boompicks/pickengine/internal/modelscorer"
	"github.com/boompicks/pickengine/internal/pipeline"
	"github.com/boompicks/pickengine/internal/provider"
	"github.com/boompicks/pickengine/internal/provider/vendor"
	"github.com/boompicks/pickengine/internal/registry"
	"github.com/boompicks/pickengine/internal/scheduler"
	"github.com/boompicks/pickengine/internal/store"
	"github.com/boompicks/pickengine/internal/streaming"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.AppEnv, cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Error().Err(err).Msg("failed to ping database")
		os.Exit(1)
	}
	cancel()
	log.Info().Msg("connected to database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse redis url")
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("failed to connect to redis")
		os.Exit(1)
	}
	log.Info().Msg("connected to redis")

	st := store.New(db)
	runLock := lock.New(redisClient, time.Duration(cfg.RunLockTTLSeconds)*time.Second)
	scorer := modelscorer.New()
	publisher := streaming.New(redisClient)
	clvCache := cache.New(redisClient, time.Duration(cfg.RunIntervalSeconds)*time.Second)
	leagueRegistry := registry.NewDefaultLeagueRegistry()

	prov := buildProvider(cfg, log)

	engine := pipeline.New(st, runLock, scorer, publisher, leagueRegistry, cfg, log)

	sched := scheduler.New(engine, prov, time.Duration(cfg.RunIntervalSeconds)*time.Second, log)
	sched.Start(ctx)
	log.Info().Dur("interval", time.Duration(cfg.RunIntervalSeconds)*time.Second).Msg("pipeline scheduler started")

	handler := httpapi.NewHandler(st, engine, prov, clvCache, log)
	router := httpapi.NewRouter(handler, log, []string{"*"})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http surface listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
			os.Exit(1)
		}
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown failed, forcing close")
			_ = srv.Close()
		}
	}

	log.Info().Msg("shutdown complete")
}

// buildProvider selects the odds-provider implementation named by
// PROVIDER_MODE: "vendor" hits the real odds API, "mock"/"deterministic"
// are the fixed in-process fixtures used for local runs without external
// credentials.
func buildProvider(cfg *config.Config, log zerolog.Logger) provider.Provider {
	switch cfg.ProviderMode {
	case "vendor":
		apiKey := os.Getenv("ODDS_API_KEY")
		if apiKey == "" {
			log.Warn().Msg("PROVIDER_MODE=vendor but ODDS_API_KEY is unset; falling back to deterministic provider")
			return provider.NewDeterministicProvider()
		}
		baseURL := os.Getenv("ODDS_API_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.the-odds-api.com"
		}
		return vendor.NewClient(baseURL, apiKey, "basketball_nba")
	case "mock":
		return provider.NewMockProvider()
	default:
		return provider.NewDeterministicProvider()
	}
}
