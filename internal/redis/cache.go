package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// DefaultSummaryTTL keeps summaries around for a week of lookups.
const DefaultSummaryTTL = 7 * 24 * time.Hour

const summaryPrefix = "assignment:summary:"

// SummaryStore caches run summaries in Redis.
type SummaryStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(client *redis.Client, ttl time.Duration) *SummaryStore {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryStore{client: client, ttl: ttl}
}

// GetSummary returns the cached summary for date (YYYY-MM-DD), or nil on a
// cache miss.
func (s *SummaryStore) GetSummary(ctx context.Context, date string) (*domain.RunSummary, error) {
	data, err := s.client.Get(ctx, summaryPrefix+date).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SetSummary stores a summary under its date.
func (s *SummaryStore) SetSummary(ctx context.Context, summary *domain.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, summaryPrefix+summary.Date, data, s.ttl).Err()
}
