package model

import "time"

// Proposal is a municipal proposal that citizens submit suggestions
// against. Proposals are created by moderators.
type Proposal struct {
	ID          uint64
	ModeratorID uint64
	Title       string
	Description string
	City        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
