package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
)

const releaseLock = "pf:lock:payouts:payout-release"

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCmdable()}

	ok, err := client.SetNX(ctx, releaseLock, "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, releaseLock, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	owner, err := client.Get(ctx, releaseLock)
	require.NoError(t, err)
	assert.Equal(t, "owner-a", owner)

	require.NoError(t, client.Del(ctx, releaseLock))
	_, err = client.Get(ctx, releaseLock)
	assert.True(t, errors.Is(err, Nil))
}

func TestCompareAndDeleteOnlyRemovesOwnedValue(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCmdable()}
	_, err := client.SetNX(ctx, releaseLock, "owner-a", time.Minute)
	require.NoError(t, err)

	deleted, err := client.CompareAndDelete(ctx, releaseLock, "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	owner, err := client.Get(ctx, releaseLock)
	require.NoError(t, err)
	assert.Equal(t, "owner-a", owner)

	deleted, err = client.CompareAndDelete(ctx, releaseLock, "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = client.Get(ctx, releaseLock)
	assert.ErrorIs(t, err, Nil)
}

func TestSetOverwrites(t *testing.T) {
	client := &Client{cmd: newFakeCmdable()}
	ctx := context.Background()
	key := client.IdempotencyKey("scope", "k1")

	_, err := client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, key, "done", time.Minute))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, errNotInitialized)
	_, err = client.CompareAndDelete(context.Background(), "k", "v")
	assert.ErrorIs(t, err, errNotInitialized)
	assert.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	assert.NoError(t, client.Close())

	var none *Client
	assert.NoError(t, none.Close())
}

func TestKeys(t *testing.T) {
	client := &Client{}
	assert.Equal(t, releaseLock, client.LockKey("payout-release"))
	assert.Equal(t, "pf:lock:payouts", client.LockKey(" "))
	assert.Equal(t, "pf:idempotency:POST|/withdrawals:abc", client.IdempotencyKey("POST|/withdrawals", "abc"))
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		DB:          5,
		PoolSize:    7,
		DialTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 4, opts.DB)

	_, err = optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

type fakeCmdable struct {
	data map[string]string
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{data: make(map[string]string)}
}

func (f *fakeCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval understands only the compare-and-delete script.
func (f *fakeCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != compareAndDelete || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
	}
	if f.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(f.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}
