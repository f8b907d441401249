package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"

	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

const parisCurrent = `{"name": "Paris", "dt": 1718020800, "main": {"temp": 21, "humidity": 40}, "wind": {"speed": 2.5}, "weather": [{"description": "few clouds"}]}`

type DashboardIntegrationSuite struct {
	suite.Suite
	httpServer  *httptest.Server
	owmServer   *httptest.Server
	miniRedis   *miniredis.Miniredis
	slowStarted chan struct{}
}

func TestDashboardIntegrationSuite(t *testing.T) {
	suite.Run(t, new(DashboardIntegrationSuite))
}

func (s *DashboardIntegrationSuite) SetupSuite() {
	s.miniRedis = miniredis.RunT(s.T())
	viper.Set("redis.addr", s.miniRedis.Addr())
	redis.ResetClientForTest()

	s.owmServer = s.mockOWMApi()
	repo := repository.NewWeatherClient(
		repository.WithBaseURL(s.owmServer.URL),
		repository.WithAPIKey("test_api_key"),
	)
	weatherService := service.NewWeatherService(repo)
	store := state.NewRedisStore(redis.GetClient(), time.Minute)

	dash := NewDashboardHandler(dashboard.New(weatherService, store), "London")
	dash.Ready = func(ctx context.Context) error { return redis.Ping(ctx, time.Second) }

	s.httpServer = httptest.NewServer(NewRouter(NewWeatherHandler(weatherService), dash, nil, time.Minute))
}

func (s *DashboardIntegrationSuite) TearDownSuite() {
	s.httpServer.Close()
	s.owmServer.Close()
	viper.Set("redis.addr", "")
	redis.ResetClientForTest()
}

func (s *DashboardIntegrationSuite) SetupTest() {
	s.slowStarted = make(chan struct{}, 2)
}

func (s *DashboardIntegrationSuite) mockOWMApi() *httptest.Server {
	london := map[string]string{
		"/weather":  s.readFixture("testdata/openweathermap_london.json"),
		"/forecast": s.readFixture("testdata/openweathermap_forecast_london.json"),
	}
	paris := map[string]string{
		"/weather":  parisCurrent,
		"/forecast": london["/forecast"],
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "test_api_key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}

		var bodies map[string]string
		switch r.URL.Query().Get("q") {
		case "London":
			bodies = london
		case "Paris":
			bodies = paris
		case "Slowtown":
			select {
			case s.slowStarted <- struct{}{}:
			default:
			}
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Second):
			}
			bodies = london
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
}

func (s *DashboardIntegrationSuite) readFixture(path string) string {
	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	return string(data)
}

func (s *DashboardIntegrationSuite) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func (s *DashboardIntegrationSuite) sessionID(client *http.Client) string {
	u, _ := url.Parse(s.httpServer.URL)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == middleware.SessionCookie {
			return c.Value
		}
	}
	return ""
}

func (s *DashboardIntegrationSuite) decodeState(resp *http.Response) model.DashboardState {
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var env struct {
		Data model.DashboardState `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func (s *DashboardIntegrationSuite) getState(client *http.Client) model.DashboardState {
	resp, err := client.Get(s.httpServer.URL + "/api/dashboard")
	s.Require().NoError(err)
	return s.decodeState(resp)
}

func (s *DashboardIntegrationSuite) changeCity(client *http.Client, city string) model.DashboardState {
	resp, err := client.Post(s.httpServer.URL+"/api/dashboard/city?city="+url.QueryEscape(city), "text/plain", nil)
	s.Require().NoError(err)
	return s.decodeState(resp)
}

func (s *DashboardIntegrationSuite) TestWeatherEndpoint() {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		validate   func(body []byte)
	}{
		{
			name:       "Success - London",
			query:      "?city=London",
			wantStatus: http.StatusOK,
			validate: func(body []byte) {
				var env struct {
					Data model.DashboardView `json:"data"`
				}
				s.Require().NoError(json.Unmarshal(body, &env))
				s.Equal("London", env.Data.Current.Name)
				s.Equal("clear sky", env.Data.Current.Description)
				s.Equal(15.2, env.Data.Current.Temperature)
				s.Equal(72, env.Data.Current.Humidity)
				s.Equal(4.1, env.Data.Current.WindSpeed)
				s.Equal("6/10/2024, 12:00:00 PM", env.Data.ObservedAt)
				s.Len(env.Data.Forecast, 5)
				s.Equal([]string{"6/10/2024", "6/11/2024", "6/12/2024", "6/13/2024", "6/14/2024"}, env.Data.Chart.Labels)
				s.Equal([]float64{10, 14, 18, 22, 26}, env.Data.Chart.Temperatures)
				s.Equal([]int{50, 58, 66, 74, 82}, env.Data.Chart.Humidities)
			},
		},
		{
			name:       "Failed - Missing city parameter",
			wantStatus: http.StatusBadRequest,
			validate: func(body []byte) {
				s.Contains(string(body), "Missing 'city' query parameter")
			},
		},
		{
			name:       "Failed - Unknown city",
			query:      "?city=Nowhereistan",
			wantStatus: http.StatusNotFound,
			validate: func(body []byte) {
				s.Contains(string(body), "city not found")
				s.NotContains(string(body), `"data"`)
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := http.Get(s.httpServer.URL + "/weather" + tt.query)
			s.Require().NoError(err)
			defer resp.Body.Close()
			s.Equal(tt.wantStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			s.Require().NoError(err)
			tt.validate(body)
		})
	}
}

func (s *DashboardIntegrationSuite) TestDashboardFlow() {
	client := s.newClient()

	resp, err := client.Get(s.httpServer.URL + "/")
	s.Require().NoError(err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(page), "Current Weather in London")
	s.Contains(string(page), "5-Day Forecast")

	sid := s.sessionID(client)
	s.Require().NotEmpty(sid)
	s.True(s.miniRedis.Exists("dashboard:" + sid + ":view"))

	st := s.changeCity(client, "Paris")
	s.Equal("Paris", st.City)
	s.Require().NotNil(st.View)
	s.Equal("Paris", st.View.Current.Name)
	s.Empty(st.Error)

	st = s.changeCity(client, "Nowhereistan")
	s.Equal("Nowhereistan", st.City)
	s.Contains(st.Error, "was not found")
	s.Require().NotNil(st.View)
	s.Equal("Paris", st.View.Current.Name)

	req, _ := http.NewRequest(http.MethodDelete, s.httpServer.URL+"/api/dashboard", nil)
	resp, err = client.Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.False(s.miniRedis.Exists("dashboard:" + sid + ":view"))
}

func (s *DashboardIntegrationSuite) TestLatestCityWins() {
	client := s.newClient()
	s.getState(client)

	slow := make(chan model.DashboardState, 1)
	go func() {
		resp, err := client.Post(s.httpServer.URL+"/api/dashboard/city?city=Slowtown", "text/plain", nil)
		if err != nil {
			close(slow)
			return
		}
		defer resp.Body.Close()
		var env struct {
			Data model.DashboardState `json:"data"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&env)
		slow <- env.Data
	}()

	select {
	case <-s.slowStarted:
	case <-time.After(2 * time.Second):
		s.FailNow("slow fetch never reached the weather API")
	}

	st := s.changeCity(client, "Paris")
	s.Equal("Paris", st.City)
	s.Require().NotNil(st.View)
	s.Equal("Paris", st.View.Current.Name)

	select {
	case late, ok := <-slow:
		s.Require().True(ok)
		s.Equal("Paris", late.City)
	case <-time.After(3 * time.Second):
		s.FailNow("superseded fetch was not cancelled")
	}

	final := s.getState(client)
	s.Equal("Paris", final.City)
	s.Require().NotNil(final.View)
	s.Equal("Paris", final.View.Current.Name)
	s.Empty(final.Error)
}

func (s *DashboardIntegrationSuite) TestSessionsAreIsolated() {
	alice, bob := s.newClient(), s.newClient()
	s.changeCity(alice, "Paris")
	s.changeCity(bob, "London")

	s.Equal("Paris", s.getState(alice).View.Current.Name)
	s.Equal("London", s.getState(bob).View.Current.Name)
}

func (s *DashboardIntegrationSuite) TestHealth() {
	resp, err := http.Get(s.httpServer.URL + "/healthz")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
