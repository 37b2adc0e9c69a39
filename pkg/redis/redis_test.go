package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(config.RedisConfig{Enabled: false, KeyPrefix: "t1"})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "t1:ratelimit:sina", client.Key("ratelimit", "sina"))
	assert.NoError(t, client.Close())
}

func TestNewClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)

	client, err := New(config.RedisConfig{
		Host:        host,
		Port:        port,
		Enabled:     true,
		KeyPrefix:   "t1",
		DialTimeout: time.Second,
		PoolSize:    2,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := strings.Cut(mr.Addr(), ":")
	mr.Close()

	_, err := New(config.RedisConfig{Host: host, Port: port, Enabled: true, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestClient_KeyWithoutNamespace(t *testing.T) {
	client := NewFromAddr("127.0.0.1:0", "")
	defer client.Close()
	assert.Equal(t, "ratelimit:eastmoney", client.Key("ratelimit", "eastmoney"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(config.RedisConfig{})
	limiter := NewRateLimiter(client)

	allowed, remaining, err := limiter.Allow(context.Background(), EastmoneyRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, EastmoneyRateLimit.Limit, remaining)
}

func TestRateLimiter_NilIsPermissive(t *testing.T) {
	var limiter *RateLimiter
	allowed, _, err := limiter.Allow(context.Background(), SinaRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewFromAddr(mr.Addr(), "t1")
	defer client.Close()

	limiter := NewRateLimiter(client)
	cfg := RateLimitConfig{Key: "unit", Limit: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, mr.Exists("t1:ratelimit:unit"))
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewFromAddr(mr.Addr(), "t1")
	defer client.Close()

	limiter := NewRateLimiter(client)
	cfg := RateLimitConfig{Key: "wait", Limit: 1, Window: time.Minute}

	require.NoError(t, limiter.Wait(context.Background(), cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := limiter.Wait(ctx, cfg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
