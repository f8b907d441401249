package render

import (
	"html/template"
	"io"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// Page is the data of the dashboard page.
type Page struct {
	City  string
	Error string
	View  *model.DashboardView
}

// Chart returns the Chart.js configuration for the page's view.
func (p Page) Chart() ChartConfig {
	if p.View == nil {
		return NewLineChart(model.ChartSeries{})
	}
	return NewLineChart(p.View.Chart)
}

var funcs = template.FuncMap{
	"number": formatNumber,
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Weather App</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
body { font-family: sans-serif; background: #282c34; color: #fff; text-align: center; }
.error { color: #ff6b6b; }
.forecast-container { display: flex; justify-content: center; gap: 1rem; flex-wrap: wrap; }
.forecast-item { background: #3a3f4b; border-radius: 6px; padding: 0.5rem 1rem; }
canvas { max-width: 800px; margin: 0 auto; background: #fff; }
</style>
</head>
<body>
<h1>Weather App</h1>
<form method="get" action="/">
  <input type="text" name="city" placeholder="Enter city name" value="{{.City}}">
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{with .View}}
<div class="current-weather">
  <h2>Current Weather in {{.Current.Name}}</h2>
  <p>{{.Current.Description}}</p>
  <p>Temperature: {{number .Current.Temperature}}°C</p>
  <p>Humidity: {{.Current.Humidity}}%</p>
  <p>Wind Speed: {{number .Current.WindSpeed}} m/s</p>
  <p>Date &amp; Time: {{.ObservedAt}}</p>
</div>
<div class="forecast">
  <h2>{{len .Forecast}}-Day Forecast</h2>
  <div class="forecast-container">
  {{range .Forecast}}
    <div class="forecast-item">
      <p>{{.Date}}</p>
      <p>{{.Description}}</p>
      <p>Temp: {{number .Temperature}}°C</p>
      <p>Humidity: {{.Humidity}}%</p>
    </div>
  {{end}}
  </div>
  <canvas id="chart"></canvas>
</div>
<script>
new Chart(document.getElementById("chart"), {{$.Chart}});
</script>
{{end}}
</body>
</html>
`))

// HTML renders the dashboard page.
func HTML(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}
