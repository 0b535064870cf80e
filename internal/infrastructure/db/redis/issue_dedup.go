package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const issueDedupTTL = 24 * time.Hour

// IssueDedup provides idempotency for token issuing backed by Redis.
// Key format: issue:<request_id> → token number it produced.
type IssueDedup struct {
	client *redis.Client
}

// NewIssueDedup creates an IssueDedup wrapping the given Redis client.
func NewIssueDedup(client *redis.Client) *IssueDedup {
	return &IssueDedup{client: client}
}

// Lookup returns the token number a request ID already produced, if any.
func (d *IssueDedup) Lookup(ctx context.Context, requestID string) (string, bool, error) {
	number, err := d.client.Get(ctx, d.key(requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("issue dedup lookup: %w", err)
	}
	return number, true, nil
}

// Remember records which token a request ID produced (expires after
// issueDedupTTL).
func (d *IssueDedup) Remember(ctx context.Context, requestID, number string) error {
	return d.client.Set(ctx, d.key(requestID), number, issueDedupTTL).Err()
}

func (d *IssueDedup) key(requestID string) string {
	return "issue:" + requestID
}
