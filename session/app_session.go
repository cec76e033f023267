// Package session keeps login sessions keyed by an opaque cookie value.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"Gin_postgres_redis_tool_issuance/models"
)

var ErrNoSession = errors.New("session not found")

type AppSession struct {
	UserID    uint   `json:"uid"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (s *AppSession) IsAdmin() bool { return s.Role == models.RoleAdmin }

type Store interface {
	Create(ctx context.Context, id string, u *models.User) error
	Get(ctx context.Context, id string) (*AppSession, error)
	Delete(ctx context.Context, id string) error
	// RevokeAllForUser drops every session of a deleted user.
	RevokeAllForUser(ctx context.Context, userID uint) error
}

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*AppSessionStore)(nil)

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func key(id string) string { return fmt.Sprintf("tool-audit:sess:%s", id) }
func userSetKey(uid uint) string {
	return "tool-audit:user_sessions:" + strconv.FormatUint(uint64(uid), 10)
}

func newSession(u *models.User, now time.Time, ttl time.Duration) AppSession {
	return AppSession{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func (s *AppSessionStore) Create(ctx context.Context, id string, u *models.User) error {
	b, err := json.Marshal(newSession(u, time.Now(), s.ttl))
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, userSetKey(u.ID), id)
	pipe.Expire(ctx, userSetKey(u.ID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, userSetKey(as.UserID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, userID uint) error {
	ids, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, userSetKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
