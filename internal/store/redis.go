package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/toumakido/my-claude/todod/internal/model"
)

// RedisStore keeps records as fields of a single Redis hash.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore creates a store over client using key as the namespace.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Put writes todo under id.
func (s *RedisStore) Put(ctx context.Context, id string, todo model.Todo) error {
	b, err := encode(todo)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, id, b).Err(); err != nil {
		return unavailable("hset", id, err)
	}
	return nil
}

// GetAll returns every record in the hash.
func (s *RedisStore) GetAll(ctx context.Context) ([]model.Todo, error) {
	vals, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return nil, unavailable("hvals", "", err)
	}
	todos := make([]model.Todo, 0, len(vals))
	for _, v := range vals {
		todo, err := decode(s.key, []byte(v))
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// Get returns the record for id.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Todo, bool, error) {
	v, err := s.client.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return model.Todo{}, false, nil
	}
	if err != nil {
		return model.Todo{}, false, unavailable("hget", id, err)
	}
	todo, err := decode(id, []byte(v))
	if err != nil {
		return model.Todo{}, false, err
	}
	return todo, true, nil
}

// Delete removes id from the hash.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key, id).Err(); err != nil {
		return unavailable("hdel", id, err)
	}
	return nil
}

// DeleteAll removes the hash.
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return unavailable("del", "", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func unavailable(op, id string, err error) error {
	if id == "" {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, id, ErrUnavailable, err)
}
