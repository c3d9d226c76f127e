package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps a short-lived copy of each account's presence in Redis
// so peers read status without hitting the document store, and
// publishes transitions on a channel for cross-instance fan-out.
//
// Keys: <prefix>:presence:<accountID> -> {"status","last_seen"}
// Channel: <prefix>:presence
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type record struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(id string) string { return fmt.Sprintf("%s:presence:%s", c.prefix, id) }

func (c *Cache) channel() string { return c.prefix + ":presence" }

// Set writes the presence record and publishes the transition.
func (c *Cache) Set(ctx context.Context, accountID string, online bool) error {
	status := string(StatusOffline)
	if online {
		status = string(StatusOnline)
	}
	rec := record{Status: status, LastSeen: time.Now().Unix()}
	b, _ := json.Marshal(rec)
	if err := c.client.Set(ctx, c.key(accountID), b, c.ttl).Err(); err != nil {
		return err
	}
	payload, _ := json.Marshal(map[string]any{"account": accountID, "status": status, "last_seen": rec.LastSeen})
	return c.client.Publish(ctx, c.channel(), payload).Err()
}

// Get reads a cached presence record. A cache miss is not an error for
// callers; they fall back to the account document.
func (c *Cache) Get(ctx context.Context, accountID string) (Status, time.Time, error) {
	b, err := c.client.Get(ctx, c.key(accountID)).Bytes()
	if err != nil {
		return StatusOffline, time.Time{}, err
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return StatusOffline, time.Time{}, err
	}
	return Status(rec.Status), time.Unix(rec.LastSeen, 0), nil
}

// Subscribe returns the pub/sub stream of presence transitions.
func (c *Cache) Subscribe(ctx context.Context) *redis.PubSub {
	return c.client.Subscribe(ctx, c.channel())
}
