package handler

import (
	"bytes"
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/render"
)

// DashboardHandler serves the per-session dashboard.
type DashboardHandler struct {
	Dashboard   *dashboard.Dashboard
	DefaultCity string
	// Ready, when set, is checked by the health endpoint.
	Ready func(ctx context.Context) error

	logger *zap.SugaredLogger
}

func NewDashboardHandler(d *dashboard.Dashboard, defaultCity string) *DashboardHandler {
	return &DashboardHandler{
		Dashboard:   d,
		DefaultCity: defaultCity,
		logger:      config.GetLogger(),
	}
}

// HandlePage serves GET /. A city query parameter is a city change; a
// session that has never loaded anything starts with the default city.
func (h *DashboardHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sid := middleware.SessionID(r.Context())
	var (
		st  model.DashboardState
		err error
	)
	if r.URL.Query().Has("city") {
		st, err = h.Dashboard.ChangeCity(r.Context(), sid, r.URL.Query().Get("city"))
	} else {
		st, err = h.Dashboard.State(r.Context(), sid)
		if err == nil && st.Generation == 0 {
			st, err = h.Dashboard.ChangeCity(r.Context(), sid, h.DefaultCity)
		}
	}
	if err != nil {
		h.logger.Errorw("Dashboard state unavailable", "session", sid, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := render.HTML(&buf, render.Page{City: st.City, Error: st.Error, View: st.View}); err != nil {
		h.logger.Errorw("Render failed", "session", sid, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// HandleState serves GET /api/dashboard and DELETE /api/dashboard, which
// ends the session.
func (h *DashboardHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	switch r.Method {
	case http.MethodGet:
		st, err := h.Dashboard.State(r.Context(), sid)
		if err != nil {
			h.logger.Errorw("Load state failed", "session", sid, "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, model.Failure("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, model.Success(st))
	case http.MethodDelete:
		if err := h.Dashboard.Close(r.Context(), sid); err != nil {
			h.logger.Errorw("Close session failed", "session", sid, "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, model.Failure("Internal server error"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

// HandleChangeCity serves POST /api/dashboard/city?city=X and returns the
// session state after the change was applied.
func (h *DashboardHandler) HandleChangeCity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	sid := middleware.SessionID(r.Context())
	st, err := h.Dashboard.ChangeCity(r.Context(), sid, r.FormValue("city"))
	if err != nil {
		h.logger.Errorw("City change failed", "session", sid, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, model.Failure("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, model.Success(st))
}

// HandleHealth serves GET /healthz.
func (h *DashboardHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			h.logger.Warnw("Health check failed", "error", err)
			writeJSONResponse(w, http.StatusServiceUnavailable, model.Failure("unavailable"))
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, model.Success(map[string]string{"status": "ok"}))
}
