// Package blobstore keeps each collection as one JSON document in redis.
// Every write reads the whole collection and replaces it.
package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

const (
	ToolsKey     = "tool-audit:tools"
	IssuancesKey = "tool-audit:tool_issuances"
	UsersKey     = "tool-audit:users"
)

// userDoc carries the password hash, which models.User hides from JSON.
type userDoc struct {
	models.User
	Password string `json:"password"`
}

type Store struct {
	kv kv
}

var _ store.Store = (*Store)(nil)

func New(rdb *redis.Client) *Store { return &Store{kv: redisKV{rdb: rdb}} }

func load[T any](ctx context.Context, k kv, key string) ([]T, error) {
	b, err := k.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return decode[T](key, b)
}

func decode[T any](key string, b []byte) ([]T, error) {
	var rows []T
	if len(b) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return rows, nil
}

func update[T any](ctx context.Context, k kv, key string, fn func([]T) ([]T, error)) error {
	err := k.Update(ctx, key, func(cur []byte) ([]byte, error) {
		rows, err := decode[T](key, cur)
		if err != nil {
			return nil, err
		}
		rows, err = fn(rows)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

// Tools

func (s *Store) GetTool(ctx context.Context, code string) (*models.Tool, error) {
	tools, err := load[models.Tool](ctx, s.kv, ToolsKey)
	if err != nil {
		return nil, err
	}
	for _, t := range tools {
		if t.Code == code {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetToolByID(ctx context.Context, id uint) (*models.Tool, error) {
	tools, err := load[models.Tool](ctx, s.kv, ToolsKey)
	if err != nil {
		return nil, err
	}
	for _, t := range tools {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListTools(ctx context.Context) ([]models.Tool, error) {
	tools, err := load[models.Tool](ctx, s.kv, ToolsKey)
	if err != nil {
		return nil, err
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Code < tools[j].Code })
	return tools, nil
}

func nextToolID(tools []models.Tool) uint {
	var max uint
	for _, t := range tools {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func (s *Store) CreateTool(ctx context.Context, t *models.Tool) error {
	return update(ctx, s.kv, ToolsKey, func(tools []models.Tool) ([]models.Tool, error) {
		for _, cur := range tools {
			if cur.Code == t.Code {
				return nil, store.ErrConflict
			}
		}
		t.ID = nextToolID(tools)
		return append(tools, *t), nil
	})
}

func (s *Store) PutTool(ctx context.Context, t *models.Tool) error {
	return update(ctx, s.kv, ToolsKey, func(tools []models.Tool) ([]models.Tool, error) {
		idx := -1
		for i, cur := range tools {
			if cur.ID == t.ID {
				idx = i
			} else if cur.Code == t.Code {
				return nil, store.ErrConflict
			}
		}
		if idx < 0 {
			return nil, store.ErrNotFound
		}
		tools[idx] = *t
		return tools, nil
	})
}

func (s *Store) ReplaceTools(ctx context.Context, rows []models.Tool) error {
	return update(ctx, s.kv, ToolsKey, func(tools []models.Tool) ([]models.Tool, error) {
		byCode := make(map[string]int, len(tools))
		for i, t := range tools {
			byCode[t.Code] = i
		}
		for _, r := range rows {
			if i, ok := byCode[r.Code]; ok {
				r.ID = tools[i].ID
				r.CreatedAt = tools[i].CreatedAt
				tools[i] = r
				continue
			}
			r.ID = nextToolID(tools)
			byCode[r.Code] = len(tools)
			tools = append(tools, r)
		}
		return tools, nil
	})
}

// Issuances

func (s *Store) GetIssuance(ctx context.Context, id int64) (*models.Issuance, error) {
	rows, err := load[models.Issuance](ctx, s.kv, IssuancesKey)
	if err != nil {
		return nil, err
	}
	for _, is := range rows {
		if is.ID == id {
			return &is, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateIssuance(ctx context.Context, is *models.Issuance) error {
	return update(ctx, s.kv, IssuancesKey, func(rows []models.Issuance) ([]models.Issuance, error) {
		var max int64
		for _, cur := range rows {
			if cur.ID > max {
				max = cur.ID
			}
		}
		is.ID = max + 1
		return append(rows, *is), nil
	})
}

func (s *Store) PutIssuance(ctx context.Context, is *models.Issuance) error {
	return s.PutIssuances(ctx, []models.Issuance{*is})
}

func (s *Store) PutIssuances(ctx context.Context, batch []models.Issuance) error {
	if len(batch) == 0 {
		return nil
	}
	return update(ctx, s.kv, IssuancesKey, func(rows []models.Issuance) ([]models.Issuance, error) {
		idx := make(map[int64]int, len(rows))
		for i, cur := range rows {
			idx[cur.ID] = i
		}
		for _, is := range batch {
			if _, ok := idx[is.ID]; !ok {
				return nil, store.ErrNotFound
			}
		}
		for _, is := range batch {
			rows[idx[is.ID]] = is
		}
		return rows, nil
	})
}

func (s *Store) ListIssuances(ctx context.Context, f store.IssuanceFilter) ([]models.Issuance, error) {
	rows, err := load[models.Issuance](ctx, s.kv, IssuancesKey)
	if err != nil {
		return nil, err
	}
	out := make([]models.Issuance, 0, len(rows))
	for i := range rows {
		if f.Match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	store.SortNewestFirst(out)
	return out, nil
}

// Users

func toUser(d userDoc) *models.User {
	u := d.User
	u.PasswordHash = d.Password
	return &u
}

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	docs, err := load[userDoc](ctx, s.kv, UsersKey)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.Username == username {
			return toUser(d), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	docs, err := load[userDoc](ctx, s.kv, UsersKey)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == id {
			return toUser(d), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	docs, err := load[userDoc](ctx, s.kv, UsersKey)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(docs))
	for _, d := range docs {
		if role == "" || d.Role == role {
			out = append(out, *toUser(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return update(ctx, s.kv, UsersKey, func(docs []userDoc) ([]userDoc, error) {
		var max uint
		for _, d := range docs {
			if d.Username == u.Username {
				return nil, store.ErrConflict
			}
			if d.ID > max {
				max = d.ID
			}
		}
		u.ID = max + 1
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now()
		}
		return append(docs, userDoc{User: *u, Password: u.PasswordHash}), nil
	})
}

func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return update(ctx, s.kv, UsersKey, func(docs []userDoc) ([]userDoc, error) {
		for i, d := range docs {
			if d.ID == id {
				return append(docs[:i], docs[i+1:]...), nil
			}
		}
		return nil, store.ErrNotFound
	})
}
