package repository

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionRepository creates an in-process SessionRepository for single
// instance deployments and tests.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *memorySessionRepository) Create(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	if _, ok := r.lookup(s.ID); ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.sessions[s.ID] = memoryEntry{session: *s, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *memorySessionRepository) FindByID(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := e.session
	return &s, nil
}

func (r *memorySessionRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := e.session
	if err := fn(&s); err != nil {
		return nil, err
	}
	r.sessions[id] = memoryEntry{session: s, expiresAt: r.now().Add(r.ttl)}
	return &s, nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// lookup returns a live entry, evicting it if expired. Caller holds mu.
func (r *memorySessionRepository) lookup(id string) (memoryEntry, bool) {
	e, ok := r.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if r.now().After(e.expiresAt) {
		delete(r.sessions, id)
		return memoryEntry{}, false
	}
	return e, true
}

// sweep drops every expired entry so sessions nobody revisits do not pile up. Caller holds mu.
func (r *memorySessionRepository) sweep() {
	now := r.now()
	for id, e := range r.sessions {
		if now.After(e.expiresAt) {
			delete(r.sessions, id)
		}
	}
}
