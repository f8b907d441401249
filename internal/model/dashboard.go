package model

// DashboardView is everything needed to render one city.
type DashboardView struct {
	City       string          `json:"city"`
	Current    CurrentWeather  `json:"current"`
	ObservedAt string          `json:"observed_at"`
	Forecast   SampledForecast `json:"forecast"`
	Chart      ChartSeries     `json:"chart"`
}

// DashboardState is the display state of one session. View is the last
// successful result and is only ever replaced as a whole.
type DashboardState struct {
	City       string         `json:"city"`
	Generation int64          `json:"generation"`
	View       *DashboardView `json:"view,omitempty"`
	Error      string         `json:"error,omitempty"`
}
