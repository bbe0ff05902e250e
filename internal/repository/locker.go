package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const lockExpiry = 5 * time.Second

// Locker serializes read-modify-write cycles on a single game.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type redisLocker struct {
	logger *slog.Logger
	locker *redsync.Redsync
}

// NewRedisLocker returns a Locker shared by every replica talking to the same redis.
func NewRedisLocker(logger *slog.Logger, client *redis.Client) Locker {
	pool := goredis.NewPool(client)

	return &redisLocker{
		logger: logger.With("component", "redisLocker"),
		locker: redsync.New(pool),
	}
}

func (that *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := that.locker.NewMutex(lockKey(key), redsync.WithExpiry(lockExpiry))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func() {
		ok, err := mutex.UnlockContext(context.WithoutCancel(ctx))
		if err != nil {
			that.logger.Error("failed to release lock", "key", key, "error", err)
			return
		}

		if !ok {
			that.logger.Warn("lock expired before release", "key", key)
		}
	}, nil
}

// localLock is dropped from the map once nobody holds or waits for it.
type localLock struct {
	mu   sync.Mutex
	refs int
}

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

// NewLocalLocker returns a Locker for a single process, paired with the memory repositories.
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*localLock)}
}

func (that *localLocker) Lock(_ context.Context, key string) (func(), error) {
	that.mu.Lock()
	lock, ok := that.locks[key]
	if !ok {
		lock = &localLock{}
		that.locks[key] = lock
	}
	lock.refs++
	that.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		that.mu.Lock()
		defer that.mu.Unlock()

		lock.refs--
		if lock.refs == 0 {
			delete(that.locks, key)
		}
	}, nil
}

func (that *localLocker) size() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.locks)
}

func lockKey(key string) string {
	return "lock:" + key
}
