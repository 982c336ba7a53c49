package model

import "time"

// Suggestion is a citizen submission against a proposal. The author is the
// owner for authorization purposes.
type Suggestion struct {
	ID         uint64
	ProposalID uint64
	AuthorID   uint64
	Title      string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Vote records one user's vote on a suggestion. A user votes at most once
// per suggestion (unique key on user_id+suggestion_id).
type Vote struct {
	ID           uint64
	SuggestionID uint64
	UserID       uint64
	CreatedAt    time.Time
}
