package repository

import (
	"context"
	"database/sql"
	"strings"
)

// VoteRepo persists votes on suggestions.
type VoteRepo struct{ DB *sql.DB }

func NewVoteRepo(db *sql.DB) *VoteRepo { return &VoteRepo{DB: db} }

// Create records a vote. The unique key on (user_id, suggestion_id) turns
// a duplicate vote into ErrAlreadyVoted.
func (r *VoteRepo) Create(ctx context.Context, suggestionID, userID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO votes (suggestion_id, user_id) VALUES (?,?)",
		suggestionID, userID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrAlreadyVoted
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
