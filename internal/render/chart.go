package render

import "github.com/fakhrymubarak/weather-dashboard/internal/model"

// ChartConfig is a Chart.js configuration object.
type ChartConfig struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label           string        `json:"label"`
	Data            []interface{} `json:"data"`
	BorderColor     string        `json:"borderColor"`
	BackgroundColor string        `json:"backgroundColor"`
	Fill            bool          `json:"fill"`
}

type ChartOptions struct {
	Responsive bool                  `json:"responsive"`
	Scales     map[string]ChartScale `json:"scales"`
}

type ChartScale struct {
	Display bool       `json:"display"`
	Title   ChartTitle `json:"title"`
}

type ChartTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

// NewLineChart draws temperature and humidity against the shared date axis.
func NewLineChart(series model.ChartSeries) ChartConfig {
	temps := make([]interface{}, len(series.Temperatures))
	for i, v := range series.Temperatures {
		temps[i] = v
	}
	humidity := make([]interface{}, len(series.Humidities))
	for i, v := range series.Humidities {
		humidity[i] = v
	}
	labels := series.Labels
	if labels == nil {
		labels = []string{}
	}

	return ChartConfig{
		Type: "line",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{
				{
					Label:           "Temperature (°C)",
					Data:            temps,
					BorderColor:     "rgba(255, 99, 132, 1)",
					BackgroundColor: "rgba(255, 99, 132, 0.2)",
				},
				{
					Label:           "Humidity (%)",
					Data:            humidity,
					BorderColor:     "rgba(54, 162, 235, 1)",
					BackgroundColor: "rgba(54, 162, 235, 0.2)",
				},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Scales: map[string]ChartScale{
				"x": {Display: true, Title: ChartTitle{Display: true, Text: "Date"}},
				"y": {Display: true, Title: ChartTitle{Display: true, Text: "Value"}},
			},
		},
	}
}
