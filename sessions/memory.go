package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store with the same semantics as PGStore.
// It backs handler and middleware tests, and suits single-process local runs
// where losing sessions on restart is acceptable.
type MemoryStore struct {
	mu       sync.Mutex
	lifetime time.Duration
	sessions map[string]*memorySession

	// Now supplies the current time. Tests override it to step the clock
	// past session expiry without sleeping.
	Now func() time.Time
}

type memorySession struct {
	session Session
	flashes []Flash
}

// NewMemoryStore creates an empty MemoryStore with the given session
// lifetime.
func NewMemoryStore(lifetime time.Duration) *MemoryStore {
	return &MemoryStore{
		lifetime: lifetime,
		sessions: make(map[string]*memorySession),
		Now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	session := Session{
		Token:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.lifetime),
	}
	s.sessions[session.Token] = &memorySession{session: session}
	out := session
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok || entry.session.ExpiredAt(s.Now()) {
		return nil, ErrNoSession
	}
	out := entry.session
	return &out, nil
}

func (s *MemoryStore) BindUser(ctx context.Context, token string, userID int) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	fresh := &memorySession{
		session: Session{
			Token:     uuid.NewString(),
			UserID:    &userID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.lifetime),
		},
	}
	// Carry pending flashes over, then retire the pre-login token.
	if old, ok := s.sessions[token]; ok {
		fresh.flashes = old.flashes
		delete(s.sessions, token)
	}
	s.sessions[fresh.session.Token] = fresh
	out := fresh.session
	return &out, nil
}

func (s *MemoryStore) ClearUser(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.sessions[token]; ok {
		entry.session.UserID = nil
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.sessions[token]; ok {
		entry.session.ExpiresAt = expiresAt
	}
	return nil
}

func (s *MemoryStore) AddFlash(ctx context.Context, token string, flash Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.sessions[token]; ok {
		entry.flashes = append(entry.flashes, flash)
	}
	return nil
}

func (s *MemoryStore) PopFlashes(ctx context.Context, token string) ([]Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	flashes := entry.flashes
	entry.flashes = nil
	return flashes, nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	var removed int64
	for token, entry := range s.sessions {
		if entry.session.ExpiredAt(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
