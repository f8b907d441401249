// Package state owns the per-session display state of the dashboard.
//
// Every city change starts a new generation. A result may only be published
// for the generation it was started under, so a slow, superseded fetch can
// never overwrite the outcome of a newer one.
package state

import (
	"context"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

type Store interface {
	// Begin records a city change and returns its generation.
	Begin(ctx context.Context, sessionID, city string) (int64, error)
	// Commit replaces the view and clears the error if generation is still
	// current. It reports whether the view was applied.
	Commit(ctx context.Context, sessionID string, generation int64, view *model.DashboardView) (bool, error)
	// Fail records a user-facing error message if generation is still
	// current. The last view is left untouched.
	Fail(ctx context.Context, sessionID string, generation int64, message string) (bool, error)
	// Load returns the session state; unknown sessions yield a zero state.
	Load(ctx context.Context, sessionID string) (model.DashboardState, error)
	Delete(ctx context.Context, sessionID string) error
}
