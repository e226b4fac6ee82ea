package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"minepanel/internal/models"
)

// MemoryStore keeps every record in process memory. A single mutex serializes
// id assignment, inserts and the settings update. Callers always receive copies.
type MemoryStore struct {
	mu sync.Mutex

	users    map[uint]*models.User
	servers  map[uint]*models.Server
	settings models.Settings

	nextUserID   uint
	nextServerID uint

	now func() time.Time
}

func NewMemoryStore(defaults models.Settings) *MemoryStore {
	defaults.ID = models.SettingsID
	return &MemoryStore{
		users:        map[uint]*models.User{},
		servers:      map[uint]*models.Server{},
		settings:     defaults,
		nextUserID:   1,
		nextServerID: 1,
		now:          time.Now,
	}
}

func (s *MemoryStore) Close() error { return nil }

func copyUser(u *models.User) *models.User {
	c := *u
	if u.DiscordID != nil {
		id := *u.DiscordID
		c.DiscordID = &id
	}
	return &c
}

func copyServer(srv *models.Server) *models.Server {
	c := *srv
	if srv.LastSeen != nil {
		t := *srv.LastSeen
		c.LastSeen = &t
	}
	return &c
}

func (s *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findUsername(models.UsernameKey(username)); u != nil {
		return copyUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) findUsername(key string) *models.User {
	for _, u := range s.users {
		if u.UsernameKey == key {
			return u
		}
	}
	return nil
}

func (s *MemoryStore) GetUserByDiscordID(_ context.Context, discordID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findDiscordID(discordID); u != nil {
		return copyUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) findDiscordID(discordID string) *models.User {
	for _, u := range s.users {
		if u.DiscordID != nil && *u.DiscordID == discordID {
			return u
		}
	}
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.UsernameKey = models.UsernameKey(u.Username)
	if s.findUsername(u.UsernameKey) != nil {
		return ErrDuplicate
	}
	if u.DiscordID != nil && s.findDiscordID(*u.DiscordID) != nil {
		return ErrDuplicate
	}

	now := s.now()
	u.ID = s.nextUserID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.nextUserID++
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(u)
	u.UpdatedAt = s.now()
	return copyUser(u), nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetSettings(_ context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.settings
	return &c, nil
}

func (s *MemoryStore) UpdateSettings(_ context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch.Apply(&s.settings)
	c := s.settings
	return &c, nil
}

func (s *MemoryStore) GetServer(_ context.Context, id uint) (*models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyServer(srv), nil
}

func (s *MemoryStore) GetServerByIdentifier(_ context.Context, identifier string) (*models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if srv := s.findIdentifier(identifier); srv != nil {
		return copyServer(srv), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) findIdentifier(identifier string) *models.Server {
	for _, srv := range s.servers {
		if srv.Identifier == identifier {
			return srv
		}
	}
	return nil
}

func (s *MemoryStore) CreateServer(_ context.Context, srv *models.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findIdentifier(srv.Identifier) != nil {
		return ErrDuplicate
	}

	now := s.now()
	srv.ID = s.nextServerID
	srv.LastSeen = &now
	s.nextServerID++
	s.servers[srv.ID] = copyServer(srv)
	return nil
}

func (s *MemoryStore) UpdateServer(_ context.Context, id uint, patch models.ServerPatch) (*models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(srv)
	return copyServer(srv), nil
}

func (s *MemoryStore) ListServers(_ context.Context) ([]models.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Server, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, *copyServer(srv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
