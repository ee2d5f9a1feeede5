package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
)

const boardingPointsKey = "boarding_points"

// ReferenceCache keeps boarding points and riders in process memory.
// Reference data changes rarely compared with the nightly run cadence.
type ReferenceCache struct {
	repo  repository.ReferenceRepository
	cache *cache.Cache
}

// NewReferenceCache creates a cache with the given entry lifetime.
func NewReferenceCache(repo repository.ReferenceRepository, ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// BoardingPoints returns all boarding points keyed by id.
func (c *ReferenceCache) BoardingPoints(ctx context.Context) (map[string]domain.BoardingPoint, error) {
	if cached, ok := c.cache.Get(boardingPointsKey); ok {
		return cached.(map[string]domain.BoardingPoint), nil
	}

	points, err := c.repo.ListBoardingPoints(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.BoardingPoint, len(points))
	for _, p := range points {
		byID[p.ID] = *p
	}
	c.cache.SetDefault(boardingPointsKey, byID)
	return byID, nil
}

// Riders returns the riders among ids keyed by id, loading misses in one query.
func (c *ReferenceCache) Riders(ctx context.Context, ids []string) (map[string]domain.Rider, error) {
	result := make(map[string]domain.Rider, len(ids))
	var missing []string
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if cached, ok := c.cache.Get("rider:" + id); ok {
			result[id] = cached.(domain.Rider)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	riders, err := c.repo.GetRidersByIDs(ctx, missing)
	if err != nil {
		return result, err
	}
	for _, rider := range riders {
		c.cache.SetDefault("rider:"+rider.ID, *rider)
		result[rider.ID] = *rider
	}
	return result, nil
}

// Flush drops every cached entry.
func (c *ReferenceCache) Flush() {
	c.cache.Flush()
}
