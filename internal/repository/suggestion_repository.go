package repository

import (
	"context"
	"database/sql"

	"github.com/avetisk/civic-voice/internal/model"
)

// SuggestionRepo persists citizen suggestions.
type SuggestionRepo struct{ DB *sql.DB }

func NewSuggestionRepo(db *sql.DB) *SuggestionRepo { return &SuggestionRepo{DB: db} }

// Create inserts a suggestion and returns its ID.
func (r *SuggestionRepo) Create(ctx context.Context, s model.Suggestion) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO suggestions (proposal_id, author_id, title, content) VALUES (?,?,?,?)",
		s.ProposalID, s.AuthorID, s.Title, s.Content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a suggestion by id.
func (r *SuggestionRepo) GetByID(ctx context.Context, id uint64) (model.Suggestion, error) {
	var s model.Suggestion
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,proposal_id,author_id,title,content,created_at,updated_at FROM suggestions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.ProposalID, &s.AuthorID, &s.Title, &s.Content, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Update rewrites title and content. The ownership decision happens before
// this is called; the repository does not re-check it.
func (r *SuggestionRepo) Update(ctx context.Context, id uint64, title, content string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE suggestions SET title=?, content=?, updated_at=NOW() WHERE id=?",
		title, content, id)
	return err
}

// Delete removes a suggestion and its dependent votes and comments.
func (r *SuggestionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM votes WHERE suggestion_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE suggestion_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM suggestions WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}
