package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

const (
	currentEndpoint  = "weather"
	forecastEndpoint = "forecast"
)

// WeatherClient fetches current conditions and the 5-day/3-hour forecast
// for a city. Either both parts are returned or a *FetchError is.
type WeatherClient interface {
	Fetch(ctx context.Context, city string) (*model.WeatherReport, error)
}

// weatherClient implements WeatherClient against OpenWeatherMap.
type weatherClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// Option customises a weatherClient.
type Option func(*weatherClient)

func WithHTTPClient(client *http.Client) Option {
	return func(c *weatherClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *weatherClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIKey pins the credential. Without it the key is read from the
// environment on every fetch.
func WithAPIKey(apiKey string) Option {
	return func(c *weatherClient) {
		c.apiKey = apiKey
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *weatherClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewWeatherClient creates a client configured from config.yaml, adjusted by opts.
func NewWeatherClient(opts ...Option) WeatherClient {
	c := &weatherClient{
		baseURL:    config.GetOpenWeatherBaseURL(),
		timeout:    config.GetOpenWeatherTimeout(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues both requests concurrently. The first failure cancels the
// sibling request and is the one reported.
func (c *weatherClient) Fetch(ctx context.Context, city string) (*model.WeatherReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, &FetchError{Kind: KindRequest, Err: ErrEmptyCity}
	}

	apiKey := c.apiKey
	if apiKey == "" {
		apiKey = config.GetOpenWeatherMapAPIKey()
	}
	if apiKey == "" {
		return nil, &FetchError{Kind: KindRequest, City: city, Err: ErrAPIKeyMissing}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		current  model.CurrentWeather
		forecast []model.ForecastEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = c.fetchCurrent(gctx, city, apiKey)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = c.fetchForecast(gctx, city, apiKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	config.GetLogger().Debugw("Fetched weather", "city", city, "forecast_entries", len(forecast))
	return &model.WeatherReport{
		Current:  current,
		Forecast: forecast,
	}, nil
}

func (c *weatherClient) fetchCurrent(ctx context.Context, city, apiKey string) (model.CurrentWeather, error) {
	var data model.OpenWeatherMapResponse
	if err := c.getJSON(ctx, currentEndpoint, city, apiKey, &data); err != nil {
		return model.CurrentWeather{}, err
	}
	if data.Main == nil {
		return model.CurrentWeather{}, &FetchError{
			Kind:     KindParse,
			City:     city,
			Endpoint: currentEndpoint,
			Err:      errors.New(`response has no "main" object`),
		}
	}

	return model.CurrentWeather{
		Name:        data.Name,
		Description: model.FirstDescription(data.Weather),
		Temperature: data.Main.Temp,
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
		Timestamp:   data.Dt,
	}, nil
}

func (c *weatherClient) fetchForecast(ctx context.Context, city, apiKey string) ([]model.ForecastEntry, error) {
	var data model.OpenWeatherMapForecastResponse
	if err := c.getJSON(ctx, forecastEndpoint, city, apiKey, &data); err != nil {
		return nil, err
	}
	if data.List == nil {
		return nil, &FetchError{
			Kind:     KindParse,
			City:     city,
			Endpoint: forecastEndpoint,
			Err:      errors.New(`response has no "list" array`),
		}
	}

	entries := make([]model.ForecastEntry, 0, len(data.List))
	for _, item := range data.List {
		entries = append(entries, model.ForecastEntry{
			Timestamp:   item.Dt,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			Description: model.FirstDescription(item.Weather),
		})
	}
	return entries, nil
}

// getJSON performs GET {baseURL}/{endpoint}?q=city&appid=key&units=metric
// and decodes a 2xx body into out.
func (c *weatherClient) getJSON(ctx context.Context, endpoint, city, apiKey string, out interface{}) error {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", apiKey)
	params.Set("units", "metric")

	fail := func(kind ErrorKind, status int, err error) error {
		return &FetchError{Kind: kind, City: city, Endpoint: endpoint, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fail(KindRequest, 0, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(KindNetwork, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusNotFound {
			return fail(KindHTTP, resp.StatusCode, ErrLocationNotFound)
		}
		return fail(KindHTTP, resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrExternalAPI, resp.StatusCode, errorMessage(resp)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fail(KindNetwork, resp.StatusCode, ctx.Err())
		}
		return fail(KindParse, resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// errorMessage extracts the "message" member OpenWeatherMap puts in error bodies.
func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr model.OpenWeatherMapError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return http.StatusText(resp.StatusCode)
}
