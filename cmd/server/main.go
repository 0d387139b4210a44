// Command server runs the offer-aggregation HTTP API.
//
// Startup order: environment (.env optional) → config → logging → tracing →
// database → router → HTTP server. An optional background loop drives the
// price-drift simulation when TICK_INTERVAL is set; the admin endpoint can
// trigger ticks either way. Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/dealradar/offers-backend/internal/alerts"
	"github.com/dealradar/offers-backend/internal/config"
	httpapi "github.com/dealradar/offers-backend/internal/http"
	"github.com/dealradar/offers-backend/internal/observability"
	"github.com/dealradar/offers-backend/internal/repo"
	"github.com/dealradar/offers-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()

	svcs := httpapi.BuildServices(db, cfg)
	httpapi.RegisterRoutes(engine, svcs, cfg)

	if cfg.Alerts.TickInterval > 0 {
		go runTickLoop(ctx, svcs, cfg.Alerts.TickInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			os.Exit(1)
		}
		return
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("http server stopped")
}

// runTickLoop drives the price-drift simulation at a fixed interval until the
// context is cancelled. An ErrTickRunning collision (admin-triggered tick in
// flight) is skipped silently; other errors are logged and the loop keeps
// going.
func runTickLoop(ctx context.Context, svcs httpapi.Services, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	log.Info().Dur("interval", interval).Msg("price tick loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("price tick loop stopped")
			return
		case <-t.C:
			res, err := svcs.Alerts.RunPriceTick(ctx)
			if err != nil {
				if !errors.Is(err, alerts.ErrTickRunning) && !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Msg("scheduled price tick failed")
				}
				continue
			}
			log.Debug().
				Int("changed", len(res.ChangedItems)).
				Int("notifications", len(res.Notifications)).
				Msg("scheduled price tick complete")
		}
	}
}
