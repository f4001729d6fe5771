package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/saferides/internal/catalog"
	"github.com/example/saferides/internal/config"
	"github.com/example/saferides/internal/geocode"
	httpapi "github.com/example/saferides/internal/http"
	"github.com/example/saferides/internal/identity"
	"github.com/example/saferides/internal/ingest"
	"github.com/example/saferides/internal/logging"
	"github.com/example/saferides/internal/notify"
	"github.com/example/saferides/internal/payments"
	"github.com/example/saferides/internal/ride"
	"github.com/example/saferides/internal/schedule"
	"github.com/example/saferides/internal/storage"
	"github.com/example/saferides/internal/stream"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if cfg.PGDSN != "" && cfg.RunMigrations {
		runMigrations(cfg.PGDSN, logger)
	}

	var store storage.Store
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		store = ps
	} else {
		store = storage.NewMemoryStore()
	}

	var cache geocode.SuggestionCache
	if cfg.RedisAddr != "" {
		cache = geocode.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.GeocodeCacheTTL)
	} else {
		cache = geocode.NewMemoryCache(cfg.GeocodeCacheTTL)
	}
	var geocoder geocode.Geocoder
	if cfg.GeocodeEndpoint != "" {
		geocoder = geocode.NewHTTPGeocoder(cfg.GeocodeEndpoint)
	}
	resolver := geocode.NewResolver(geocoder, cache)

	var rideEvents, scheduleEvents *ingest.Producer
	if len(cfg.KafkaBrokers) > 0 {
		rideEvents = ingest.NewProducer(cfg.KafkaBrokers, cfg.RideTopic)
		scheduleEvents = ingest.NewProducer(cfg.KafkaBrokers, cfg.ScheduleTopic)
		defer rideEvents.Close()
		defer scheduleEvents.Close()
	}

	var notifier notify.Scheduler
	if cfg.PushEndpoint != "" {
		notifier = notify.NewHTTPPush(cfg.PushEndpoint, cfg.PushKey)
	}

	var cards payments.CardHolder
	if os.Getenv("STRIPE_API_KEY") != "" {
		cards = payments.NewStripeClient()
	}

	wfDeps := ride.Deps{
		Catalog: catalog.Default(),
		Store:   store,
		Cards:   cards,
		Logger:  logger,
	}
	if rideEvents != nil {
		wfDeps.Events = rideEvents
	}

	schedDeps := schedule.Deps{
		Store:    store,
		Notifier: notifier,
		Lead:     cfg.ReminderLead,
		Logger:   logger,
	}
	if scheduleEvents != nil {
		schedDeps.Events = scheduleEvents
	}

	srv := httpapi.NewServer(httpapi.Options{
		Logger:    logger,
		Resolver:  resolver,
		Catalog:   wfDeps.Catalog,
		Schedules: schedule.NewService(schedDeps),
		Store:     store,
		Hub:       stream.NewHub(),
		Verifier:  identity.NewVerifier(cfg.JWTSecret),
		Auth:      identity.NewEvents(),
		Workflow:  wfDeps,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("saferides api listening", "addr", cfg.HTTPAddr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// optional migration: apply migrations/001_create_tables.sql if requested
func runMigrations(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_tables.sql"))
	if err != nil {
		logger.Error("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_tables.sql")
}
