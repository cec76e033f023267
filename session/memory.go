package session

import (
	"context"
	"sync"
	"time"

	"Gin_postgres_redis_tool_issuance/models"
)

// MemoryStore serves STORE_BACKEND=memory, where no redis is configured.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	sess map[string]AppSession
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sess: make(map[string]AppSession)}
}

func (m *MemoryStore) Create(_ context.Context, id string, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess[id] = newSession(u, m.now(), m.ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*AppSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	as, ok := m.sess[id]
	if !ok {
		return nil, ErrNoSession
	}
	if m.now().Unix() >= as.ExpiresAt {
		delete(m.sess, id)
		return nil, ErrNoSession
	}
	return &as, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, id)
	return nil
}

func (m *MemoryStore) RevokeAllForUser(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, as := range m.sess {
		if as.UserID == userID {
			delete(m.sess, id)
		}
	}
	return nil
}
