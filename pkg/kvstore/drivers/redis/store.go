package redis

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/pawlog/pkg/kvstore"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Store is a kvstore.Store backed by Redis. Every key is prefixed with
// Namespace so several clients can share one server.
type Store struct {
	client    *redis.Client
	namespace string
}

var _ kvstore.Store = (*Store)(nil)

// NewStore returns a Store talking to the Redis server at addr.
func NewStore(addr, namespace string) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Store{client: rdb, namespace: namespace}
}

// NewStoreWithClient wraps an existing client. Close closes the client.
func NewStoreWithClient(client *redis.Client, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

func (s *Store) key(k string) string { return s.namespace + k }

func (s *Store) Ping(ctx context.Context) error {
	return mapErr(s.client.Ping(ctx).Err())
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr(err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return mapErr(s.client.Set(ctx, s.key(key), value, 0).Err())
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return mapErr(s.client.Del(ctx, s.key(key)).Err())
}

// Keys walks the keyspace with SCAN. Glob metacharacters in the prefix are
// escaped so the match stays literal.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(s.key(prefix)) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, mapErr(err)
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func mapErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return kvstore.ErrClosed
	}
	return err
}
