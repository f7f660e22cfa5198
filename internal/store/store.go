// Package store keeps todo records in a hash-like backend under one
// namespace key, mapping item id to the record's JSON encoding.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/toumakido/my-claude/todod/internal/model"
)

// Store errors.
var (
	// ErrUnavailable is returned when the backend cannot be reached or fails a call.
	ErrUnavailable = errors.New("store unavailable")
	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("stored record is corrupt")
)

// DefaultNamespace is the hash key holding every record.
const DefaultNamespace = "VERT_TODO"

// Backend names accepted by Open.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Store is the contract every backend implements. Every call is one round
// trip to the backend; nothing is cached in process.
type Store interface {
	// Put writes todo under id, replacing any previous record.
	Put(ctx context.Context, id string, todo model.Todo) error

	// GetAll returns every record in the namespace, in no particular order.
	GetAll(ctx context.Context) ([]model.Todo, error)

	// Get returns the record for id. A missing record is reported with
	// found == false and a nil error.
	Get(ctx context.Context, id string) (todo model.Todo, found bool, err error)

	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes the whole namespace.
	DeleteAll(ctx context.Context) error

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Addr      string
	Password  string
	DB        int
	Namespace string

	// SharedIDs moves id assignment into the backend.
	SharedIDs bool
}

// Open builds the Store and the id Sequence described by opts.
func Open(opts Options) (Store, Sequence, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	switch opts.Backend {
	case BackendRedis, "":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		s := NewRedisStore(client, opts.Namespace)
		if opts.SharedIDs {
			return s, NewRedisSequence(client, opts.Namespace+":seq"), nil
		}
		return s, NewLocalSequence(), nil
	case BackendMemory:
		if opts.SharedIDs {
			return nil, nil, fmt.Errorf("backend %q cannot assign shared ids", opts.Backend)
		}
		return NewMemoryStore(), NewLocalSequence(), nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}

func encode(todo model.Todo) ([]byte, error) {
	b, err := json.Marshal(todo)
	if err != nil {
		return nil, fmt.Errorf("encode todo %d: %w", todo.ID, err)
	}
	return b, nil
}

func decode(id string, b []byte) (model.Todo, error) {
	var todo model.Todo
	if err := json.Unmarshal(b, &todo); err != nil {
		return model.Todo{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	return todo, nil
}
