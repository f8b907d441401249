package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// setIfCurrent writes KEYS[2] only while KEYS[1] still holds generation
// ARGV[1]. When ARGV[4] is "1" it also clears the error key KEYS[3].
var setIfCurrent = redisv9.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
if ARGV[4] == '1' then
	redis.call('DEL', KEYS[3])
end
return 1
`)

// RedisStore keeps session state in Redis so several dashboard instances
// can share it. Every key expires with the session.
type RedisStore struct {
	client redisv9.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redisv9.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

type sessionKeys struct {
	gen, city, view, err string
}

func keysFor(sessionID string) sessionKeys {
	prefix := "dashboard:" + sessionID + ":"
	return sessionKeys{
		gen:  prefix + "gen",
		city: prefix + "city",
		view: prefix + "view",
		err:  prefix + "error",
	}
}

func (s *RedisStore) Begin(ctx context.Context, sessionID, city string) (int64, error) {
	k := keysFor(sessionID)
	var incr *redisv9.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		incr = pipe.Incr(ctx, k.gen)
		pipe.Expire(ctx, k.gen, s.ttl)
		pipe.Set(ctx, k.city, city, s.ttl)
		pipe.Expire(ctx, k.view, s.ttl)
		pipe.Expire(ctx, k.err, s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("begin session %s: %w", sessionID, err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) Commit(ctx context.Context, sessionID string, generation int64, view *model.DashboardView) (bool, error) {
	b, err := json.Marshal(view)
	if err != nil {
		return false, fmt.Errorf("encode view: %w", err)
	}
	k := keysFor(sessionID)
	return s.setIfCurrent(ctx, []string{k.gen, k.view, k.err}, generation, string(b), true)
}

func (s *RedisStore) Fail(ctx context.Context, sessionID string, generation int64, message string) (bool, error) {
	k := keysFor(sessionID)
	return s.setIfCurrent(ctx, []string{k.gen, k.err, k.err}, generation, message, false)
}

func (s *RedisStore) setIfCurrent(ctx context.Context, keys []string, generation int64, value string, clearErr bool) (bool, error) {
	clearFlag := "0"
	if clearErr {
		clearFlag = "1"
	}
	applied, err := setIfCurrent.Run(ctx, s.client, keys,
		strconv.FormatInt(generation, 10), value, s.ttl.Milliseconds(), clearFlag).Int()
	if err != nil {
		return false, fmt.Errorf("update session: %w", err)
	}
	return applied == 1, nil
}

// Load reads the session and, like any other access, restarts its TTL.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (model.DashboardState, error) {
	k := keysFor(sessionID)
	var mget *redisv9.SliceCmd
	_, err := s.client.Pipelined(ctx, func(pipe redisv9.Pipeliner) error {
		mget = pipe.MGet(ctx, k.gen, k.city, k.view, k.err)
		for _, key := range []string{k.gen, k.city, k.view, k.err} {
			pipe.PExpire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return model.DashboardState{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	vals := mget.Val()

	var st model.DashboardState
	if v, ok := vals[0].(string); ok {
		if st.Generation, err = strconv.ParseInt(v, 10, 64); err != nil {
			return model.DashboardState{}, fmt.Errorf("decode generation: %w", err)
		}
	}
	if v, ok := vals[1].(string); ok {
		st.City = v
	}
	if v, ok := vals[2].(string); ok {
		var view model.DashboardView
		if err := json.Unmarshal([]byte(v), &view); err != nil {
			return model.DashboardState{}, fmt.Errorf("decode view: %w", err)
		}
		st.View = &view
	}
	if v, ok := vals[3].(string); ok {
		st.Error = v
	}
	return st, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	k := keysFor(sessionID)
	return s.client.Del(ctx, k.gen, k.city, k.view, k.err).Err()
}

var _ Store = (*RedisStore)(nil)
