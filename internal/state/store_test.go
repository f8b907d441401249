package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

func view(city string, temp float64) *model.DashboardView {
	return &model.DashboardView{
		City:       city,
		Current:    model.CurrentWeather{Name: city, Temperature: temp, Humidity: 60},
		ObservedAt: "6/10/2024, 12:00:00 PM",
		Forecast:   model.SampledForecast{{ForecastEntry: model.ForecastEntry{Timestamp: 1, Temperature: temp}, Date: "6/10/2024"}},
		Chart:      model.ChartSeries{Labels: []string{"6/10/2024"}, Temperatures: []float64{temp}, Humidities: []int{60}},
	}
}

// storeFixture is a Store plus a way to let time pass for it.
type storeFixture struct {
	Store
	advance func(d time.Duration)
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, newStore func(t *testing.T) storeFixture) {
	ctx := context.Background()

	t.Run("unknown session loads zero state", func(t *testing.T) {
		st, err := newStore(t).Load(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, model.DashboardState{}, st)
	})

	t.Run("commit publishes view", func(t *testing.T) {
		store := newStore(t)
		gen, err := store.Begin(ctx, "s1", "London")
		require.NoError(t, err)
		assert.Equal(t, int64(1), gen)

		ok, err := store.Commit(ctx, "s1", gen, view("London", 15))
		require.NoError(t, err)
		assert.True(t, ok)

		st, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "London", st.City)
		assert.Equal(t, int64(1), st.Generation)
		require.NotNil(t, st.View)
		assert.Equal(t, *view("London", 15), *st.View)
		assert.Empty(t, st.Error)
	})

	t.Run("stale generation is rejected", func(t *testing.T) {
		store := newStore(t)
		genA, _ := store.Begin(ctx, "s1", "Paris")
		genB, _ := store.Begin(ctx, "s1", "Berlin")
		assert.Greater(t, genB, genA)

		ok, err := store.Commit(ctx, "s1", genB, view("Berlin", 20))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Commit(ctx, "s1", genA, view("Paris", 10))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.Fail(ctx, "s1", genA, "Failed")
		require.NoError(t, err)
		assert.False(t, ok)

		st, _ := store.Load(ctx, "s1")
		assert.Equal(t, "Berlin", st.City)
		assert.Equal(t, "Berlin", st.View.City)
		assert.Empty(t, st.Error)
	})

	t.Run("failure keeps last view", func(t *testing.T) {
		store := newStore(t)
		gen, _ := store.Begin(ctx, "s1", "London")
		_, _ = store.Commit(ctx, "s1", gen, view("London", 15))

		gen, _ = store.Begin(ctx, "s1", "Nowhereistan")
		ok, err := store.Fail(ctx, "s1", gen, "city not found")
		require.NoError(t, err)
		assert.True(t, ok)

		st, _ := store.Load(ctx, "s1")
		assert.Equal(t, "Nowhereistan", st.City)
		assert.Equal(t, "city not found", st.Error)
		require.NotNil(t, st.View)
		assert.Equal(t, "London", st.View.City)

		gen, _ = store.Begin(ctx, "s1", "Paris")
		_, _ = store.Commit(ctx, "s1", gen, view("Paris", 18))
		st, _ = store.Load(ctx, "s1")
		assert.Empty(t, st.Error)
		assert.Equal(t, "Paris", st.View.City)
	})

	t.Run("commit without begin is rejected", func(t *testing.T) {
		ok, err := newStore(t).Commit(ctx, "ghost", 1, view("London", 15))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := newStore(t)
		genA, _ := store.Begin(ctx, "a", "London")
		genB, _ := store.Begin(ctx, "b", "Tokyo")
		assert.Equal(t, genA, genB)

		_, _ = store.Commit(ctx, "a", genA, view("London", 15))
		st, _ := store.Load(ctx, "b")
		assert.Nil(t, st.View)
		assert.Equal(t, "Tokyo", st.City)
	})

	t.Run("delete drops session", func(t *testing.T) {
		store := newStore(t)
		gen, _ := store.Begin(ctx, "s1", "London")
		_, _ = store.Commit(ctx, "s1", gen, view("London", 15))
		require.NoError(t, store.Delete(ctx, "s1"))

		st, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, model.DashboardState{}, st)
	})

	t.Run("reads keep an idle session alive", func(t *testing.T) {
		store := newStore(t)
		gen, _ := store.Begin(ctx, "s1", "Paris")
		_, _ = store.Commit(ctx, "s1", gen, view("Paris", 18))

		// Three reads 40s apart span twice the one minute TTL.
		for i := 0; i < 3; i++ {
			store.advance(40 * time.Second)
			st, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "Paris", st.City)
			assert.Equal(t, int64(1), st.Generation)
			require.NotNil(t, st.View)
		}

		store.advance(2 * time.Minute)
		st, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, model.DashboardState{}, st)
	})

	t.Run("concurrent begins get distinct generations", func(t *testing.T) {
		store := newStore(t)
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[int64]bool{}
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				gen, err := store.Begin(ctx, "s1", "London")
				assert.NoError(t, err)
				mu.Lock()
				seen[gen] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 20)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) storeFixture {
		store := NewMemoryStore(time.Minute)
		now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }
		return storeFixture{Store: store, advance: func(d time.Duration) {
			now = now.Add(d)
			store.Prune()
		}}
	})
}

func TestRedisStore(t *testing.T) {
	storeContract(t, func(t *testing.T) storeFixture {
		mr := miniredis.RunT(t)
		client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return storeFixture{Store: NewRedisStore(client, time.Minute), advance: mr.FastForward}
	})
}

func TestRedisStore_KeysExpireWithSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	gen, err := store.Begin(ctx, "s1", "London")
	require.NoError(t, err)
	_, err = store.Commit(ctx, "s1", gen, view("London", 15))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, mr.TTL("dashboard:s1:gen"))
	assert.Equal(t, time.Minute, mr.TTL("dashboard:s1:view"))

	mr.FastForward(2 * time.Minute)
	st, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.DashboardState{}, st)
}

func TestRedisStore_CorruptView(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)

	require.NoError(t, mr.Set("dashboard:s1:view", "not-json"))
	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}

func TestMemoryStore_Prune(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = store.Begin(ctx, "old", "London")
	now = now.Add(50 * time.Second)
	_, _ = store.Begin(ctx, "fresh", "Paris")
	now = now.Add(20 * time.Second)

	assert.Equal(t, 1, store.Prune())
	st, _ := store.Load(ctx, "old")
	assert.Zero(t, st.Generation)
	st, _ = store.Load(ctx, "fresh")
	assert.Equal(t, "Paris", st.City)
}

func TestMemoryStore_StartCleanup(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _ = store.Begin(ctx, "s1", "London")
	store.StartCleanup(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sessions) == 0
	}, time.Second, 5*time.Millisecond)
}
