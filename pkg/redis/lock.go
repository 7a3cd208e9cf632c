package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wonny/demandprep/internal/contracts"
)

// ErrNotAcquired is returned by TryLock when another holder owns the key
var ErrNotAcquired = fmt.Errorf("redis lock not acquired: %w", contracts.ErrLockHeld)

// releaseScript deletes the key only if we still own it
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Locker implements a lease lock (SET NX PX) shared across processes
// ⭐ SSOT: 프로세스 간 잠금은 여기서만
type Locker struct {
	client *Client
	prefix string
	retry  time.Duration
}

// NewLocker creates a locker; keys are stored as "{prefix}:lock:{key}"
func NewLocker(client *Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		retry:  100 * time.Millisecond,
	}
}

func (l *Locker) fullKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", l.prefix, key)
}

// TryLock makes a single acquisition attempt
func (l *Locker) TryLock(ctx context.Context, key string) (func(), error) {
	if !l.client.Enabled() {
		return func() {}, nil
	}

	token := uuid.NewString()
	fullKey := l.fullKey(key)

	ok, err := l.client.Redis().SetNX(ctx, fullKey, token, l.client.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func() {
		// 요청 ctx 가 이미 취소됐어도 해제는 시도
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client.Redis(), []string{fullKey}, token).Err()
	}, nil
}

// Lock blocks until the lease is acquired or ctx is cancelled
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		unlock, err := l.TryLock(ctx, key)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for lock %s: %w: %w", key, contracts.ErrLockHeld, ctx.Err())
		case <-time.After(l.retry):
			// Retry
		}
	}
}
