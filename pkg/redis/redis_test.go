package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestLocker_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	locker := NewLocker(client, "test")

	// When Redis is disabled, locking is a no-op
	unlock, err := locker.Lock(context.Background(), "category")
	require.NoError(t, err)
	unlock()

	unlock2, err := locker.TryLock(context.Background(), "category")
	require.NoError(t, err)
	unlock2()
}

func integrationClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}

	client, err := NewFromURL(url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_Exclusive(t *testing.T) {
	client := integrationClient(t)
	locker := NewLocker(client, "test-"+uuid.NewString())
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "category")
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "category")
	assert.ErrorIs(t, err, ErrNotAcquired)

	// different key is independent
	other, err := locker.TryLock(ctx, "product_id")
	require.NoError(t, err)
	other()

	unlock()

	again, err := locker.TryLock(ctx, "category")
	require.NoError(t, err)
	again()
}

func TestLocker_WaitTimesOut(t *testing.T) {
	client := integrationClient(t)
	locker := NewLocker(client, "test-"+uuid.NewString())

	unlock, err := locker.Lock(context.Background(), "category")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "category")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, contracts.ErrLockHeld)
}

func TestErrNotAcquiredIsLockHeld(t *testing.T) {
	assert.ErrorIs(t, ErrNotAcquired, contracts.ErrLockHeld)
	assert.ErrorIs(t, fmt.Errorf("lock mapping category: %w", ErrNotAcquired), contracts.ErrLockHeld)
}
