package assignment

import (
	"errors"
	"fmt"
)

// Tiers is the ascending list of vehicle capacities a trip can be sized to.
type Tiers []int

// DefaultTiers are the stock vehicle classes: sedan, microbus, hiace,
// coaster and full bus.
var DefaultTiers = Tiers{4, 7, 10, 14, 32}

// ErrInvalidTiers is returned when a tier list is empty or not strictly ascending.
var ErrInvalidTiers = errors.New("capacity tiers must be positive and strictly ascending")

// Validate checks that the tiers are usable for selection.
func (t Tiers) Validate() error {
	if len(t) == 0 {
		return ErrInvalidTiers
	}
	for i, capacity := range t {
		if capacity <= 0 {
			return fmt.Errorf("%w: tier %d has capacity %d", ErrInvalidTiers, i, capacity)
		}
		if i > 0 && capacity <= t[i-1] {
			return fmt.Errorf("%w: tier %d (%d) not above tier %d (%d)", ErrInvalidTiers, i, capacity, i-1, t[i-1])
		}
	}
	return nil
}

// Largest returns the biggest vehicle capacity.
func (t Tiers) Largest() int {
	return t[len(t)-1]
}

// Select returns the smallest tier whose capacity is at least count.
// When count exceeds every tier the largest tier is returned and overflow
// is true; callers decide how to surface that.
func (t Tiers) Select(count int) (capacity int, overflow bool) {
	for _, c := range t {
		if c >= count {
			return c, false
		}
	}
	return t.Largest(), true
}

// Normalize maps an arbitrary seat count (for example an optimizer's
// proposed vehicle) onto a real tier.
func (t Tiers) Normalize(capacity int) int {
	c, _ := t.Select(capacity)
	return c
}
