package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

const defaultStoreTTL = 24 * time.Hour

// Store is the transcript persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, key SessionKey) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, key SessionKey) error
	SweepExpired(ctx context.Context) (int, error)
}

// StoreOption customizes InMemoryStore.
type StoreOption func(*InMemoryStore)

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// InMemoryStore keeps transcripts in process memory. Entries expire a
// fixed interval after their last update; expired entries act as absent
// and are reclaimed by SweepExpired.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[SessionKey]*sessionEntry
	ttl  time.Duration
	now  func() time.Time
}

type sessionEntry struct {
	session   Session
	expiresAt time.Time
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	store := &InMemoryStore{
		data: make(map[SessionKey]*sessionEntry),
		ttl:  defaultStoreTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *InMemoryStore) Load(ctx context.Context, key SessionKey) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok || !entry.expiresAt.After(s.now()) {
		return nil, ErrSessionNotFound
	}
	return cloneSession(&entry.session), nil
}

func (s *InMemoryStore) Save(ctx context.Context, sess *Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.Key] = &sessionEntry{
		session:   *cloneSession(sess),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key SessionKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// SweepExpired reclaims expired transcripts and returns how many were
// removed.
func (s *InMemoryStore) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.data {
		if !entry.expiresAt.After(now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

func cloneSession(src *Session) *Session {
	dst := *src
	dst.Messages = make([]Message, len(src.Messages))
	copy(dst.Messages, src.Messages)
	return &dst
}
