package service

import (
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// DailyStride keeps one of every eight 3-hour forecast steps, i.e. one
// entry per day. It assumes the feed keeps its 3-hour spacing.
const DailyStride = 8

const (
	defaultDateLayout     = "1/2/2006"
	defaultDateTimeLayout = "1/2/2006, 3:04:05 PM"
)

// ForecastSampler reshapes a forecast into list and chart inputs. The zero
// value formats with the default layouts in the host's local zone.
type ForecastSampler struct {
	Location       *time.Location
	DateLayout     string
	DateTimeLayout string
}

// NewForecastSampler builds a sampler from the display.* settings.
func NewForecastSampler() ForecastSampler {
	return ForecastSampler{
		Location:       config.GetDisplayLocation(),
		DateLayout:     config.GetDateLayout(),
		DateTimeLayout: config.GetDateTimeLayout(),
	}
}

// Sample selects the entries at indices 0, 8, 16, ... and derives the
// chart series from them in the same pass. It never fails; an empty input
// yields empty, non-nil outputs.
func (s ForecastSampler) Sample(entries []model.ForecastEntry) (model.SampledForecast, model.ChartSeries) {
	n := (len(entries) + DailyStride - 1) / DailyStride
	days := make(model.SampledForecast, 0, n)
	chart := model.ChartSeries{
		Labels:       make([]string, 0, n),
		Temperatures: make([]float64, 0, n),
		Humidities:   make([]int, 0, n),
	}

	for i := 0; i < len(entries); i += DailyStride {
		entry := entries[i]
		date := s.FormatDate(entry.Timestamp)

		days = append(days, model.ForecastDay{ForecastEntry: entry, Date: date})
		chart.Labels = append(chart.Labels, date)
		chart.Temperatures = append(chart.Temperatures, entry.Temperature)
		chart.Humidities = append(chart.Humidities, entry.Humidity)
	}
	return days, chart
}

// FormatDate renders an epoch timestamp as a calendar date.
func (s ForecastSampler) FormatDate(ts int64) string {
	layout := s.DateLayout
	if layout == "" {
		layout = defaultDateLayout
	}
	return time.Unix(ts, 0).In(s.location()).Format(layout)
}

// FormatDateTime renders an epoch timestamp as date and time.
func (s ForecastSampler) FormatDateTime(ts int64) string {
	layout := s.DateTimeLayout
	if layout == "" {
		layout = defaultDateTimeLayout
	}
	return time.Unix(ts, 0).In(s.location()).Format(layout)
}

func (s ForecastSampler) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}
