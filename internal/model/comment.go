package model

import "time"

// TombstoneContent replaces a deleted comment's text. Comments are never
// physically deleted: removal clears the author reference and swaps the
// content for this sentinel so the thread keeps its shape.
const TombstoneContent = "[deleted]"

// Comment is a reply on a suggestion. AuthorID is nil once the comment has
// been tombstoned.
type Comment struct {
	ID           uint64
	SuggestionID uint64
	AuthorID     *uint64
	Content      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tombstoned reports whether the comment has been soft-deleted.
func (c Comment) Tombstoned() bool {
	return c.AuthorID == nil && c.Content == TombstoneContent
}
