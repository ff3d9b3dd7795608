package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	claims    Claims
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is unavailable and in
// tests. Sessions do not survive a restart, which is an acceptable
// degradation for development.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, c Claims) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{claims: c, expiresAt: s.now().Add(TTL)}
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.sessions, id)
		return Claims{}, ErrNotFound
	}
	return e.claims, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, c Claims) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.sessions, id)
		return ErrNotFound
	}
	e.claims = c
	s.sessions[id] = e
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DestroyAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if e.claims.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}
