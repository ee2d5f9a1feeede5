package assignment

import "fmt"

// DefaultQuorum is the minimum number of passengers for a trip to run.
const DefaultQuorum = 3

// Policy holds the tunables shared by the repair and fallback paths.
type Policy struct {
	Tiers  Tiers
	Quorum int
}

// DefaultPolicy returns the stock tiers and quorum.
func DefaultPolicy() Policy {
	return Policy{
		Tiers:  DefaultTiers,
		Quorum: DefaultQuorum,
	}
}

// Validate checks tiers and quorum.
func (p Policy) Validate() error {
	if err := p.Tiers.Validate(); err != nil {
		return err
	}
	if p.Quorum <= 0 {
		return fmt.Errorf("quorum must be positive, got %d", p.Quorum)
	}
	return nil
}
