package handler

import (
	"net/http"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
)

// NewRouter wires the HTTP endpoints. A nil limiter disables rate limiting.
func NewRouter(weather *WeatherHandler, dash *DashboardHandler, limiter *middleware.RateLimiter, sessionTTL time.Duration) http.Handler {
	limit := func(h http.Handler) http.Handler {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(h)
	}
	session := middleware.Session(sessionTTL)

	mux := http.NewServeMux()
	mux.Handle("/weather", limit(http.HandlerFunc(weather.HandleWeather)))
	mux.Handle("/api/dashboard", session(http.HandlerFunc(dash.HandleState)))
	mux.Handle("/api/dashboard/city", limit(session(http.HandlerFunc(dash.HandleChangeCity))))
	mux.HandleFunc("/healthz", dash.HandleHealth)
	mux.Handle("/", limit(session(http.HandlerFunc(dash.HandlePage))))
	return mux
}
