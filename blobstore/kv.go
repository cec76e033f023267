package blobstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrContention is returned when a document kept changing under an update.
var ErrContention = errors.New("document changed concurrently, giving up")

const maxUpdateAttempts = 5

// kv reads and rewrites whole documents.
type kv interface {
	// Get returns nil for an absent key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Update replaces the document with fn's result atomically.
	Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) error
}

type redisKV struct{ rdb *redis.Client }

func (r redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

// Update uses WATCH/MULTI so a concurrent writer forces a retry instead of
// being overwritten.
func (r redisKV) Update(ctx context.Context, key string, fn func(cur []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrContention
}
