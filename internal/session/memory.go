package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type entry struct {
	identity  Identity
	expiresAt time.Time
}

// MemoryStore keeps sessions in a map. Expired entries are invisible to
// Resolve straight away and are removed by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: map[string]entry{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, identity Identity) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	s.sessions[token] = entry{identity: identity, expiresAt: now.Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Resolve(_ context.Context, token string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, nil
	}
	id := e.identity
	return &id, nil
}

func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len reports how many entries are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep deletes every entry that expired at or before now and returns the count.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration, log logrus.FieldLogger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				log.WithField("removed", n).Debug("Expired sessions swept")
			}
		}
	}
}
