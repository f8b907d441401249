package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
)

const fetchFailedMessage = "Failed to fetch weather data. Please try again."

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
}

func NewWeatherHandler(svc ...service.WeatherServiceInterface) *WeatherHandler {
	var weatherService service.WeatherServiceInterface
	if len(svc) > 0 && svc[0] != nil {
		weatherService = svc[0]
	} else {
		weatherService = service.NewWeatherService()
	}
	return &WeatherHandler{
		WeatherService: weatherService,
	}
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSONResponse(w, http.StatusMethodNotAllowed, model.Failure("Method not allowed"))
}

// HandleWeather serves GET /weather?city=X: the dashboard view for one city
// without touching any session state.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeJSONResponse(w, http.StatusBadRequest, model.Failure("Missing 'city' query parameter"))
		return
	}

	view, err := h.WeatherService.GetDashboard(r.Context(), city)
	if err != nil {
		status, errMsg := fetchErrorStatus(err)
		config.GetLogger().Warnw("Weather lookup failed", "city", city, "status", status, "error", err)
		writeJSONResponse(w, status, model.Failure(errMsg))
		return
	}

	writeJSONResponse(w, http.StatusOK, model.Success(view))
}

func fetchErrorStatus(err error) (int, string) {
	switch {
	case repository.IsNotFound(err):
		return http.StatusNotFound, repository.ErrLocationNotFound.Error()
	case errors.Is(err, repository.ErrEmptyCity):
		return http.StatusBadRequest, "Missing 'city' query parameter"
	default:
		return http.StatusBadGateway, fetchFailedMessage
	}
}
