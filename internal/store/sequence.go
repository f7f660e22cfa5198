package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Sequence hands out item ids.
//
// Assign(ctx, 0) returns the next value of the counter. A requested id above
// the counter advances the counter to it and is returned. Any other requested
// id is returned unchanged and leaves the counter alone.
type Sequence interface {
	Assign(ctx context.Context, requested int) (int, error)
}

// LocalSequence is a process-wide counter. It starts at zero on every
// start-up and is not shared between instances.
type LocalSequence struct {
	n atomic.Int64
}

func NewLocalSequence() *LocalSequence {
	return &LocalSequence{}
}

func (s *LocalSequence) Assign(_ context.Context, requested int) (int, error) {
	if requested == 0 {
		return int(s.n.Add(1)), nil
	}
	for {
		cur := s.n.Load()
		if int64(requested) <= cur {
			return requested, nil
		}
		if s.n.CompareAndSwap(cur, int64(requested)) {
			return requested, nil
		}
	}
}

// Current returns the last value handed out.
func (s *LocalSequence) Current() int {
	return int(s.n.Load())
}

var assignScript = redis.NewScript(`
local req = tonumber(ARGV[1])
if req == 0 then
  return redis.call('INCR', KEYS[1])
end
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if req > cur then
  redis.call('SET', KEYS[1], req)
end
return req
`)

// RedisSequence keeps the counter in Redis so that several server
// instances draw from one sequence.
type RedisSequence struct {
	client redis.UniversalClient
	key    string
}

func NewRedisSequence(client redis.UniversalClient, key string) *RedisSequence {
	return &RedisSequence{client: client, key: key}
}

func (s *RedisSequence) Assign(ctx context.Context, requested int) (int, error) {
	n, err := assignScript.Run(ctx, s.client, []string{s.key}, requested).Int()
	if err != nil {
		return 0, fmt.Errorf("assign id: %w: %w", ErrUnavailable, err)
	}
	return n, nil
}
