package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const runLeaseKey = "assignment:lease:engine"

// releaseScript deletes the lease only if the caller still owns it, so an
// expired holder never frees a lease taken over by another process.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LeaseStore handles the distributed run lease in Redis.
type LeaseStore struct {
	client *redis.Client
}

// NewLeaseStore creates a new LeaseStore.
func NewLeaseStore(client *redis.Client) *LeaseStore {
	return &LeaseStore{client: client}
}

// AcquireRunLease attempts to take the engine lease.
func (s *LeaseStore) AcquireRunLease(ctx context.Context, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, runLeaseKey, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire run lease: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// ReleaseRunLease frees the lease held under token.
func (s *LeaseStore) ReleaseRunLease(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, s.client, []string{runLeaseKey}, token).Err(); err != nil {
		return fmt.Errorf("release run lease: %w", err)
	}
	return nil
}
