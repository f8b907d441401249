// Command weather prints the current conditions and the sampled daily
// forecast for one city.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/render"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
)

func main() {
	var city = flag.StringP("city", "c", config.GetDefaultCity(), "city to look up")
	var asJSON = flag.Bool("json", false, "print the dashboard view as JSON")
	var timeout = flag.Duration("timeout", config.GetOpenWeatherTimeout(), "deadline for both weather requests")

	flag.Parse()

	if flag.NArg() > 0 {
		*city = strings.Join(flag.Args(), " ")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := service.NewWeatherService(repository.NewWeatherClient(repository.WithTimeout(*timeout)))
	if err := run(ctx, os.Stdout, svc, *city, *asJSON); err != nil {
		config.GetLogger().Debugw("Lookup failed", "city", *city, "error", err)
		fmt.Fprintln(os.Stderr, dashboard.ErrorMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, svc service.WeatherServiceInterface, city string, asJSON bool) error {
	view, err := svc.GetDashboard(ctx, city)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return render.WriteText(w, view)
}
