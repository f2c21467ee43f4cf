package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/ovn-pools/internal/app"
	"github.com/web3-frozen/ovn-pools/internal/config"
	"github.com/web3-frozen/ovn-pools/internal/handler"
	"github.com/web3-frozen/ovn-pools/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis gets up to 30s for ExternalSecret to sync
	a, err := app.New(ctx, cfg, logger, app.Options{Notify: true, RedisAttempts: 6})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Start background goroutines
	go a.Bot.Run(ctx)
	go a.Syncer.Run(ctx, cfg.SyncInterval)
	go a.Skim.Run(ctx, cfg.SkimInterval)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(a.Store, a.Dedup))

	r.Route("/exchanger", func(r chi.Router) {
		r.Get("/sync/all", handler.SyncAll(a.Syncer))
		r.Get("/sync/{exchanger}", handler.SyncExchanger(a.Syncer, logger))
		r.Get("/status", handler.Status(a.Store, a.Registry.Has, a.Syncer, logger))
	})
	r.Route("/pools", func(r chi.Router) {
		r.Get("/all", handler.ListPools(a.Store, logger))
		r.Get("/{address}", handler.GetPool(a.Store, logger))
	})
	r.Get("/skim/check", handler.SkimCheck(a.Skim, logger))

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// /skim/check runs synchronously against every configured RPC
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
