// Package memstore keeps every collection in process memory. It backs the
// test suites and STORE_BACKEND=memory.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

type Store struct {
	mu        sync.RWMutex
	tools     map[string]models.Tool
	issuances map[int64]models.Issuance
	users     map[string]models.User
	lastTool  uint
	lastIss   int64
	lastUser  uint
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		tools:     make(map[string]models.Tool),
		issuances: make(map[int64]models.Issuance),
		users:     make(map[string]models.User),
	}
}

// Tools

func (s *Store) GetTool(_ context.Context, code string) (*models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Store) GetToolByID(_ context.Context, id uint) (*models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tools {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListTools(_ context.Context) ([]models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) CreateTool(_ context.Context, t *models.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[t.Code]; ok {
		return store.ErrConflict
	}
	s.lastTool++
	t.ID = s.lastTool
	s.tools[t.Code] = *t
	return nil
}

// PutTool replaces the record with the same ID, which also covers a code
// rename.
func (s *Store) PutTool(_ context.Context, t *models.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, cur := range s.tools {
		if cur.ID != t.ID {
			continue
		}
		if code != t.Code {
			if _, taken := s.tools[t.Code]; taken {
				return store.ErrConflict
			}
			delete(s.tools, code)
		}
		s.tools[t.Code] = *t
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) ReplaceTools(_ context.Context, tools []models.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tools {
		if cur, ok := s.tools[t.Code]; ok {
			t.ID = cur.ID
			t.CreatedAt = cur.CreatedAt
		} else {
			s.lastTool++
			t.ID = s.lastTool
		}
		s.tools[t.Code] = t
	}
	return nil
}

// Issuances

func (s *Store) GetIssuance(_ context.Context, id int64) (*models.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	is, ok := s.issuances[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &is, nil
}

func (s *Store) CreateIssuance(_ context.Context, is *models.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIss++
	is.ID = s.lastIss
	s.issuances[is.ID] = *is
	return nil
}

func (s *Store) PutIssuance(_ context.Context, is *models.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issuances[is.ID]; !ok {
		return store.ErrNotFound
	}
	s.issuances[is.ID] = *is
	return nil
}

func (s *Store) PutIssuances(_ context.Context, batch []models.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range batch {
		if _, ok := s.issuances[batch[i].ID]; !ok {
			return store.ErrNotFound
		}
	}
	for _, is := range batch {
		s.issuances[is.ID] = is
	}
	return nil
}

func (s *Store) ListIssuances(_ context.Context, f store.IssuanceFilter) ([]models.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Issuance, 0)
	for _, is := range s.issuances {
		if f.Match(&is) {
			out = append(out, is)
		}
	}
	store.SortNewestFirst(out)
	return out, nil
}

// Users

func (s *Store) GetUser(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, role string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return store.ErrConflict
	}
	s.lastUser++
	u.ID = s.lastUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.Username] = *u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range s.users {
		if u.ID == id {
			delete(s.users, name)
			return nil
		}
	}
	return store.ErrNotFound
}
