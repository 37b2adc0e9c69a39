package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/aegis-t1/backend/pkg/config"
)

// Client wraps the Redis client; a disabled Client turns every helper into a no-op.
// Every key it hands out lives under one namespace so several deployments can
// share an instance.
// ⭐ SSOT: Redis 连接只在这里管理
type Client struct {
	rdb       *redis.Client
	namespace string
	enabled   bool
}

// New connects using cfg and verifies the connection within the dial timeout
func New(cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{namespace: cfg.KeyPrefix}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.DialTimeout,
		PoolSize:     cfg.PoolSize,
	})
	c := &Client{rdb: rdb, namespace: cfg.KeyPrefix, enabled: true}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		rdb.Close()
		return nil, err
	}
	return c, nil
}

// NewFromAddr connects to an explicit address (tests, ad-hoc tools)
func NewFromAddr(addr, namespace string) *Client {
	return &Client{
		rdb:       redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
		enabled:   true,
	}
}

// Ping checks the connection; a disabled client always succeeds
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Key joins parts under the client namespace, e.g. t1:ratelimit:eastmoney
func (c *Client) Key(parts ...string) string {
	if c.namespace == "" {
		return strings.Join(parts, ":")
	}
	return c.namespace + ":" + strings.Join(parts, ":")
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying redis client for advanced usage
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
