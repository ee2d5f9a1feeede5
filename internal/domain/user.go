package domain

import "time"

// Rider represents a registered passenger.
type Rider struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}
