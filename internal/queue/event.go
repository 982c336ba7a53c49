// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// SuggestionCreatedEvent is published when a citizen submits a suggestion.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type SuggestionCreatedEvent struct {
	SuggestionID uint64 `json:"suggestion_id"`
	ProposalID   uint64 `json:"proposal_id"`
	AuthorID     uint64 `json:"author_id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
}

// NoticePublishedEvent is published when a moderator publishes a notice.
type NoticePublishedEvent struct {
	NoticeID    uint64 `json:"notice_id"`
	ModeratorID uint64 `json:"moderator_id"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
}
