package model

import "time"

// Notice is an official announcement published by a moderator. The
// publishing moderator owns the notice.
type Notice struct {
	ID          uint64
	ModeratorID uint64
	Title       string
	Body        string
	PublishedAt time.Time
}
