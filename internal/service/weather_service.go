package service

import (
	"context"
	"strings"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
)

// WeatherServiceInterface defines the interface for building dashboard views
type WeatherServiceInterface interface {
	GetDashboard(ctx context.Context, city string) (*model.DashboardView, error)
}

// WeatherService combines a fetch with forecast sampling.
type WeatherService struct {
	WeatherRepo repository.WeatherClient
	Sampler     ForecastSampler
}

// NewWeatherService creates a service. Without a client argument the
// OpenWeatherMap client from config is used.
func NewWeatherService(repo ...repository.WeatherClient) *WeatherService {
	var weatherRepo repository.WeatherClient
	if len(repo) > 0 && repo[0] != nil {
		weatherRepo = repo[0]
	} else {
		weatherRepo = repository.NewWeatherClient()
	}
	return &WeatherService{
		WeatherRepo: weatherRepo,
		Sampler:     NewForecastSampler(),
	}
}

// GetDashboard fetches the city and reshapes the result for rendering.
// Client errors are returned as is.
func (s *WeatherService) GetDashboard(ctx context.Context, city string) (*model.DashboardView, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := s.WeatherRepo.Fetch(ctx, city)
	if err != nil {
		return nil, err
	}

	forecast, chart := s.Sampler.Sample(report.Forecast)
	return &model.DashboardView{
		City:       strings.TrimSpace(city),
		Current:    report.Current,
		ObservedAt: s.Sampler.FormatDateTime(report.Current.Timestamp),
		Forecast:   forecast,
		Chart:      chart,
	}, nil
}
