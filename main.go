package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/handler"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.GetOpenWeatherMapAPIKey() == "" {
		logger.Warn("OPENWEATHERMAP_API_KEY is not set, every lookup will fail")
	}

	store, ready, err := newStore(ctx)
	if err != nil {
		logger.Fatalw("Session store unavailable", "error", err)
	}

	weatherService := service.NewWeatherService()
	dash := handler.NewDashboardHandler(dashboard.New(weatherService, store), config.GetDefaultCity())
	dash.Ready = ready

	limiter := middleware.NewRateLimiterFromConfig()
	limiter.StartCleanup(ctx, config.GetRateLimiterCleanupTimeout())

	srv := newServer(handler.NewRouter(handler.NewWeatherHandler(weatherService), dash, limiter, config.GetSessionTTL()))

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Weather dashboard running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Fatalw("Server failed", "error", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Graceful shutdown failed", "error", err)
	}
}

// newStore picks Redis when redis.addr is configured and the in-memory
// store otherwise. The returned readiness check may be nil.
func newStore(ctx context.Context) (state.Store, func(context.Context) error, error) {
	ttl := config.GetSessionTTL()
	if redis.Enabled() {
		if err := redis.Ping(ctx, 3*time.Second); err != nil {
			return nil, nil, err
		}
		config.GetLogger().Infow("Using Redis session store", "addr", config.GetRedisAddr())
		ready := func(ctx context.Context) error { return redis.Ping(ctx, time.Second) }
		return state.NewRedisStore(redis.GetClient(), ttl), ready, nil
	}

	config.GetLogger().Info("Using in-memory session store")
	mem := state.NewMemoryStore(ttl)
	mem.StartCleanup(ctx, time.Minute)
	return mem, nil, nil
}

func newServer(h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + config.GetServerPort(),
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeout("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeout("write_timeout", 30*time.Second),
		IdleTimeout:       config.GetServerTimeout("idle_timeout", 60*time.Second),
	}
}
