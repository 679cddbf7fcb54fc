package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ratewise/store-ratings/internal/api"
	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/config"
	"github.com/ratewise/store-ratings/internal/db"
	"github.com/ratewise/store-ratings/internal/logger"
	"github.com/ratewise/store-ratings/internal/metrics"
	"github.com/ratewise/store-ratings/internal/repository/postgres"
	"github.com/ratewise/store-ratings/internal/services"
	"github.com/ratewise/store-ratings/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}
	if err := db.SeedAdmin(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		log.Error("seed admin", "err", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	authSvc := services.NewAuthService(repos.Users, tm, cfg.ResetTokenTTL)
	adminSvc := services.NewAdminService(repos.Users, repos.Stores, repos.Ratings, repos.AuditLogs, wp)
	ratingSvc := services.NewRatingService(repos.Stores, repos.Ratings)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:       cfg,
		TM:        tm,
		AuthSvc:   authSvc,
		AdminSvc:  adminSvc,
		RatingSvc: ratingSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
