package state

import (
	"context"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

type memorySession struct {
	state    model.DashboardState
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Begin(_ context.Context, sessionID, city string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	sess.state.Generation++
	sess.state.City = city
	sess.lastSeen = s.now()
	return sess.state.Generation, nil
}

func (s *MemoryStore) Commit(_ context.Context, sessionID string, generation int64, view *model.DashboardView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.state.Generation != generation {
		return false, nil
	}
	sess.state.View = view
	sess.state.Error = ""
	sess.lastSeen = s.now()
	return true, nil
}

func (s *MemoryStore) Fail(_ context.Context, sessionID string, generation int64, message string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.state.Generation != generation {
		return false, nil
	}
	sess.state.Error = message
	sess.lastSeen = s.now()
	return true, nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (model.DashboardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.DashboardState{}, nil
	}
	sess.lastSeen = s.now()
	return sess.state, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Prune removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, sess := range s.sessions {
		if s.now().Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

// StartCleanup prunes idle sessions every interval until ctx is done.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Prune()
			case <-ctx.Done():
				return
			}
		}
	}()
}

var _ Store = (*MemoryStore)(nil)
