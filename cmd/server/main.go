package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/app"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/database"
	"github.com/stemsi/submission-portal/internal/logger"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository/memory"
	"github.com/stemsi/submission-portal/internal/service"
	"github.com/stemsi/submission-portal/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Submission Portal")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Initialize Stores ─────────────────────────────────────────────
	var stores app.Stores
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		admins := memory.NewAdminStore()
		stores = app.MemoryStores(formatPercentage(cfg.DefaultPassingPercentage), admins)
		seedAdmin(ctx, cfg, admins, log)
		log.Warn().Msg("Using in-memory stores; data is lost on restart")
	case config.StoreDriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		stores = app.PostgresStores(pool)
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Wire Services, Handlers and Router ────────────────────────────
	portal := app.New(ctx, cfg, stores, rdb, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           portal.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

func seedAdmin(ctx context.Context, cfg *config.Config, admins *memory.AdminStore, log zerolog.Logger) {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return
	}
	auth := service.NewAuthService(cfg, admins)
	hash, err := auth.HashPassword(cfg.BootstrapAdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash bootstrap admin password")
	}
	admin := model.NewAdmin(cfg.BootstrapAdminEmail, "Administrator", hash)
	if err := admins.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed bootstrap admin")
	}
	log.Info().Str("email", admin.Email).Msg("Bootstrap admin created")
}

func formatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
