package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// Lock is a single-owner distributed mutex.  The reference-data updater
// holds it for the duration of a corpus rebuild so only one process at a
// time downloads and swaps the indexes.
type Lock interface {
	// TryLock attempts a single non-blocking acquisition.
	TryLock(ctx context.Context) (bool, error)

	// Lock blocks, retrying until acquisition, ctx expiry, or retry
	// exhaustion.
	Lock(ctx context.Context) error

	// Unlock releases the lock if this owner still holds it.
	Unlock(ctx context.Context) error

	// Extend pushes the expiry out by ttl if this owner still holds it.
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
}

// Release and extend must be compare-and-set on the owner token, otherwise a
// lock that expired mid-rebuild could release a successor's acquisition.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

type redisLock struct {
	client     *Client
	logger     logging.Logger
	key        string
	token      string
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

// LockOption customises a lock.
type LockOption func(*redisLock)

// WithLockTTL sets the lock expiry.  Rebuilds that outlive it must Extend.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *redisLock) { l.ttl = ttl }
}

// WithRetry sets the blocking-acquisition retry policy.
func WithRetry(count int, delay time.Duration) LockOption {
	return func(l *redisLock) {
		l.retryCount = count
		l.retryDelay = delay
	}
}

// NewLock creates a mutex named name.  Each Lock value has its own owner
// token; two values with the same name contend, they do not share ownership.
func NewLock(client *Client, log logging.Logger, name string, opts ...LockOption) Lock {
	l := &redisLock{
		client:     client,
		logger:     log,
		key:        "geometax:lock:" + name,
		token:      uuid.NewString(),
		ttl:        5 * time.Minute,
		retryDelay: 200 * time.Millisecond,
		retryCount: 50,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *redisLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock acquisition failed")
	}
	return ok, nil
}

func (l *redisLock) Lock(ctx context.Context) error {
	for attempt := 0; attempt <= l.retryCount; attempt++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return ErrLockNotAcquired
}

func (l *redisLock) Unlock(ctx context.Context) error {
	res, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock release failed")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (l *redisLock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := l.client.Eval(ctx, extendScript, []string{l.key}, l.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock extension failed")
	}
	return res == 1, nil
}
