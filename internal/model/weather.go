package model

// CurrentWeather is the current-conditions panel of one fetch.
type CurrentWeather struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"` // °C
	Humidity    int     `json:"humidity"`    // %
	WindSpeed   float64 `json:"wind_speed"`  // m/s
	Timestamp   int64   `json:"timestamp"`   // epoch seconds, UTC
}

// ForecastEntry is one 3-hour forecast record.
type ForecastEntry struct {
	Timestamp   int64   `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
}

// WeatherReport is the combined result of a successful fetch. Both parts
// always come from the same fetch.
type WeatherReport struct {
	Current  CurrentWeather  `json:"current"`
	Forecast []ForecastEntry `json:"forecast"`
}

// ForecastDay is a sampled forecast entry with its formatted list date.
type ForecastDay struct {
	ForecastEntry
	Date string `json:"date"`
}

// SampledForecast holds one entry per day, in source order.
type SampledForecast []ForecastDay

// ChartSeries holds the parallel chart inputs derived from a SampledForecast.
type ChartSeries struct {
	Labels       []string  `json:"labels"`
	Temperatures []float64 `json:"temperatures"`
	Humidities   []int     `json:"humidities"`
}

// Len reports the shared length of the three series.
func (c ChartSeries) Len() int {
	return len(c.Labels)
}
