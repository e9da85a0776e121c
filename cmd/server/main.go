package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/api"
	"radsafe-dashboard/internal/config"
	"radsafe-dashboard/internal/logging"
	"radsafe-dashboard/internal/observability"
	"radsafe-dashboard/internal/service"
	"radsafe-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer lg.Close()
	log := lg.Logger

	log.Info("config loaded", "bind", cfg.BindAddr, "users", len(cfg.Users), "sessionTTL", cfg.SessionTTL, "maxUploadBytes", cfg.MaxUploadBytes, "maxRows", cfg.MaxRows, "maxImagePixels", cfg.MaxImagePixels)
	if len(cfg.Users) == 0 {
		log.Warn("no users configured; set RADSAFE_USERS or RADSAFE_USERS_FILE to allow logins")
	}

	// Initialize Services
	metrics := observability.NewMetrics()
	sessions := state.NewStore(cfg.SessionTTL)
	tables := analysis.NewTableService(cfg.MaxRows)
	dashboard := service.NewDashboardService(cfg.Facts)

	// Initialize Handler
	handler := api.NewHandler(log, sessions, tables, dashboard, metrics, cfg.Users, cfg.MaxUploadBytes, cfg.MaxImagePixels)

	// Router Setup
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Register all routes
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, sessions, metrics, cfg.SessionTTL, log)

	go func() {
		log.Info("🚀 starting radiation safety dashboard", "addr", cfg.BindAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
	log.Info("dashboard stopped")
}

// sweepSessions tears down idle sessions until ctx is cancelled
func sweepSessions(ctx context.Context, sessions *state.Store, metrics *observability.Metrics, ttl time.Duration, log *slog.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				log.Info("sessions expired", "count", n)
			}
			metrics.SetSessions(sessions.Len())
		}
	}
}
