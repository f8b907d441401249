package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

const genericFailure = "Failed to fetch weather data. Please try again."

type inflightFetch struct {
	generation int64
	cancel     context.CancelFunc
}

// Dashboard applies city changes to session state. For each session only
// the most recent city change may publish a result: older in-flight fetches
// are cancelled, and anything they still return is discarded by the store.
type Dashboard struct {
	service service.WeatherServiceInterface
	store   state.Store
	logger  *zap.SugaredLogger

	mu       sync.Mutex
	inflight map[string]inflightFetch
}

func New(svc service.WeatherServiceInterface, store state.Store) *Dashboard {
	return &Dashboard{
		service:  svc,
		store:    store,
		logger:   config.GetLogger(),
		inflight: make(map[string]inflightFetch),
	}
}

// ChangeCity handles one city change event and returns the session state
// once the fetch has been applied or discarded.
func (d *Dashboard) ChangeCity(ctx context.Context, sessionID, city string) (model.DashboardState, error) {
	city = strings.TrimSpace(city)
	gen, err := d.store.Begin(ctx, sessionID, city)
	if err != nil {
		return model.DashboardState{}, fmt.Errorf("change city: %w", err)
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	d.track(sessionID, gen, cancel)
	defer d.untrack(sessionID, gen, cancel)

	// Publishing must not be skipped because the caller went away.
	publishCtx := context.WithoutCancel(ctx)

	view, err := d.service.GetDashboard(fetchCtx, city)
	switch {
	case err == nil:
		applied, err := d.store.Commit(publishCtx, sessionID, gen, view)
		if err != nil {
			return model.DashboardState{}, fmt.Errorf("commit view: %w", err)
		}
		d.logger.Infow("City changed", "session", sessionID, "city", city, "generation", gen, "applied", applied)
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		// Only track and Close cancel fetchCtx while the caller is alive.
		d.logger.Debugw("Fetch superseded", "session", sessionID, "city", city, "generation", gen)
	default:
		applied, ferr := d.store.Fail(publishCtx, sessionID, gen, ErrorMessage(err))
		if ferr != nil {
			return model.DashboardState{}, fmt.Errorf("record failure: %w", ferr)
		}
		d.logger.Warnw("Fetch failed", "session", sessionID, "city", city, "generation", gen, "applied", applied, "error", err)
	}

	return d.store.Load(publishCtx, sessionID)
}

// State returns the current display state of a session.
func (d *Dashboard) State(ctx context.Context, sessionID string) (model.DashboardState, error) {
	return d.store.Load(ctx, sessionID)
}

// Close cancels any in-flight fetch of the session and drops its state.
func (d *Dashboard) Close(ctx context.Context, sessionID string) error {
	d.mu.Lock()
	if f, ok := d.inflight[sessionID]; ok {
		f.cancel()
		delete(d.inflight, sessionID)
	}
	d.mu.Unlock()
	return d.store.Delete(ctx, sessionID)
}

// track registers the fetch for gen, cancelling an older one. If a newer
// fetch is already registered the new one is cancelled straight away.
func (d *Dashboard) track(sessionID string, gen int64, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.inflight[sessionID]; ok {
		if prev.generation > gen {
			cancel()
			return
		}
		prev.cancel()
	}
	d.inflight[sessionID] = inflightFetch{generation: gen, cancel: cancel}
}

func (d *Dashboard) untrack(sessionID string, gen int64, cancel context.CancelFunc) {
	cancel()
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.inflight[sessionID]; ok && f.generation == gen {
		delete(d.inflight, sessionID)
	}
}

// ErrorMessage turns a fetch error into the text shown to the user.
func ErrorMessage(err error) string {
	var fetchErr *repository.FetchError
	switch {
	case errors.Is(err, repository.ErrEmptyCity):
		return "Please enter a city name."
	case repository.IsNotFound(err) && errors.As(err, &fetchErr):
		return fmt.Sprintf("City %q was not found. Please check the name and try again.", fetchErr.City)
	default:
		return genericFailure
	}
}
