package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("actor lock not acquired")
)

// Locker serializes booking operations that mutate the same quota counters.
// Every string in keys names one contended actor (a doctor or a patient row).
type Locker interface {
	WithActorLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// DoctorKey and PatientKey build the lock key for one actor.
func DoctorKey(id int64) string  { return fmt.Sprintf("quota:doctor:%d", id) }
func PatientKey(id int64) string { return fmt.Sprintf("quota:patient:%d", id) }

type redisActorLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisActorLocker creates a locker backed by one Redis key per actor.
func NewRedisActorLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisActorLocker{
		client: client,
		ttl:    ttl,
	}
}

// WithActorLocks acquires every key in sorted order, runs fn, then releases.
// The sort fixes a single global acquisition order so that a reschedule
// locking two doctor/patient pairs cannot deadlock against a concurrent
// booking locking one of them. If any key is already held the whole
// acquisition is abandoned and ErrLockNotAcquired is returned.
func (l *redisActorLocker) WithActorLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	keys = dedupeSorted(keys)
	token := uuid.NewString()

	var held []string
	for _, key := range keys {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.releaseAll(ctx, held, token)
			return fmt.Errorf("acquire actor lock %s: %w", key, err)
		}
		if !ok {
			l.releaseAll(ctx, held, token)
			return ErrLockNotAcquired
		}
		held = append(held, key)
	}

	defer l.releaseAll(ctx, held, token)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisActorLocker) releaseAll(ctx context.Context, keys []string, token string) {
	for _, key := range keys {
		_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			// The TTL will reap the key; nothing else to do here.
			continue
		}
	}
}

func dedupeSorted(keys []string) []string {
	sort.Strings(keys)
	out := keys[:0]
	var prev string
	for i, k := range keys {
		if i == 0 || k != prev {
			out = append(out, k)
		}
		prev = k
	}
	return out
}
