package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/mark_return.lua
var markReturnScript string

//go:embed scripts/clear_return.lua
var clearReturnScript string

type Client struct {
	rdb         *redis.Client
	markScript  *redis.Script
	clearScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:         rdb,
		markScript:  redis.NewScript(markReturnScript),
		clearScript: redis.NewScript(clearReturnScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MarkReturn atomically sets the return flag for an order/product pair.
// Returns ok=true when this caller won the flag, otherwise the status that
// was already present. The database stays the source of truth; this is the
// fast path in front of it.
func (c *Client) MarkReturn(ctx context.Context, orderID, productID, status string) (ok bool, existing string, err error) {
	key := returnKey(orderID, productID)

	result, err := c.markScript.Run(ctx, c.rdb, []string{key}, status).Result()
	if err != nil {
		return false, "", fmt.Errorf("mark return script failed: %w", err)
	}

	value, isStr := result.(string)
	if !isStr {
		return false, "", fmt.Errorf("unexpected script result type")
	}

	if value == "OK" {
		return true, "", nil
	}
	return false, value, nil
}

// ClearReturn removes the return flag if it still holds the given status
// (compensation after a failed label issuance)
func (c *Client) ClearReturn(ctx context.Context, orderID, productID, status string) error {
	key := returnKey(orderID, productID)

	_, err := c.clearScript.Run(ctx, c.rdb, []string{key}, status).Result()
	if err != nil {
		return fmt.Errorf("clear return script failed: %w", err)
	}
	return nil
}

// NextRMASequence mints the next authorization sequence number for a year.
// INCR is atomic, so concurrent issuers never see the same value.
func (c *Client) NextRMASequence(ctx context.Context, year int) (int64, error) {
	key := fmt.Sprintf("rma:seq:%d", year)
	seq, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rma sequence incr failed: %w", err)
	}
	return seq, nil
}

func returnKey(orderID, productID string) string {
	return fmt.Sprintf("return:%s:%s", orderID, productID)
}
