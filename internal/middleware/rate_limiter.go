package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// visitor holds a rate limiter and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-IP limit and a per-IP-and-city limit on
// incoming requests. Rates are expressed per minute.
type RateLimiter struct {
	paramKey string
	// TrustForwardedFor takes the client IP from X-Forwarded-For. Leave it
	// off unless a proxy in front of the server overwrites that header.
	TrustForwardedFor bool

	globalRate, paramRate   float64
	globalBurst, paramBurst int

	muGlobal sync.Mutex
	muParam  sync.Mutex
	// globalVisitors maps IP -> visitor.
	globalVisitors map[string]*visitor
	// paramVisitors maps IP -> param value -> visitor.
	paramVisitors map[string]map[string]*visitor
}

// NewRateLimiter creates a limiter keyed on the given query parameter.
func NewRateLimiter(paramKey string, globalRate float64, globalBurst int, paramRate float64, paramBurst int) *RateLimiter {
	return &RateLimiter{
		paramKey:       paramKey,
		globalRate:     globalRate,
		globalBurst:    globalBurst,
		paramRate:      paramRate,
		paramBurst:     paramBurst,
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
	}
}

// NewRateLimiterFromConfig reads rate_limiter.* and limits on the city parameter.
func NewRateLimiterFromConfig() *RateLimiter {
	globalRate, globalBurst := config.GetGlobalRateLimiterConfig()
	paramRate, paramBurst := config.GetParamRateLimiterConfig()
	rl := NewRateLimiter("city", globalRate, globalBurst, paramRate, paramBurst)
	rl.TrustForwardedFor = config.GetTrustForwardedFor()
	return rl
}

func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rl.globalRate/60.0), rl.globalBurst)
		rl.globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) getParamLimiter(ip, param string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][param]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rl.paramRate/60.0), rl.paramBurst)
		rl.paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup removes visitors not seen for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if time.Since(v.lastSeen) > idle {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, paramMap := range rl.paramVisitors {
		for param, v := range paramMap {
			if time.Since(v.lastSeen) > idle {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// StartCleanup runs Cleanup every minute until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(idle)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// getIP extracts the client's IP address, from X-Forwarded-For only when
// the header is trusted.
func getIP(r *http.Request, trustForwardedFor bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustForwardedFor && xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// Middleware responds 429 with a JSON error once either limit is exhausted.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r, rl.TrustForwardedFor)
		param := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(rl.paramKey)))
		if param == "" {
			// If param is missing, treat as a single bucket
			param = "__none__"
		}
		if !rl.getGlobalLimiter(ip).Allow() {
			writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded: too many requests from this IP", "Too Many Requests (global limit)")
			return
		}
		if !rl.getParamLimiter(ip, param).Allow() {
			writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded: too many requests for this city", "Too Many Requests (per-city limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, errMsg, message string) {
	resp := model.Failure(errMsg)
	resp.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
