package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgp-ops/askdgp/session"
)

type entry struct {
	sess    *session.Session
	expires time.Time
}

// Store keeps sessions in process memory with lazy TTL eviction.
type Store struct {
	sessions map[string]*entry
	mu       sync.RWMutex
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry), now: time.Now}
}

func (s *Store) Ensure(ctx context.Context, id string, ttl time.Duration) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if e, ok := s.sessions[id]; ok && s.now().Before(e.expires) {
			e.expires = s.now().Add(ttl)
			return e.sess, nil
		}
	}
	sess := session.New(uuid.NewString())
	s.sessions[sess.ID] = &entry{sess: sess, expires: s.now().Add(ttl)}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok || !s.now().Before(e.expires) {
		return nil, nil
	}
	return e.sess, nil
}

// Save refreshes the TTL; mutations are already visible through the shared
// pointer.
func (s *Store) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &entry{sess: sess, expires: s.now().Add(ttl)}
	return nil
}
