package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// WriteText prints the current-weather panel followed by the daily
// forecast list.
func WriteText(w io.Writer, view *model.DashboardView) error {
	var b strings.Builder

	c := view.Current
	fmt.Fprintf(&b, "Current Weather in %s\n", c.Name)
	fmt.Fprintf(&b, "  %s\n", c.Description)
	fmt.Fprintf(&b, "  Temperature: %s°C\n", formatNumber(c.Temperature))
	fmt.Fprintf(&b, "  Humidity: %d%%\n", c.Humidity)
	fmt.Fprintf(&b, "  Wind Speed: %s m/s\n", formatNumber(c.WindSpeed))
	fmt.Fprintf(&b, "  Date & Time: %s\n", view.ObservedAt)

	fmt.Fprintf(&b, "\n%d-Day Forecast\n", len(view.Forecast))
	if len(view.Forecast) == 0 {
		b.WriteString("  No forecast available.\n")
	}
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, day := range view.Forecast {
		fmt.Fprintf(tw, "  %s\t%s\tTemp: %s°C\tHumidity: %d%%\n",
			day.Date, day.Description, formatNumber(day.Temperature), day.Humidity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatNumber prints a float without trailing zeros, the way the API sent it.
func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}
