package repository

import (
	"context"
	"database/sql"

	"github.com/avetisk/civic-voice/internal/model"
)

// CommentRepo persists comments. Comments are never physically deleted:
// removal tombstones the row (content swapped for the sentinel, author
// cleared) so threads keep their shape.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create inserts a comment and returns its ID.
func (r *CommentRepo) Create(ctx context.Context, c model.Comment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (suggestion_id, author_id, content) VALUES (?,?,?)",
		c.SuggestionID, c.AuthorID, c.Content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a comment by id.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	var (
		c        model.Comment
		authorID sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,suggestion_id,author_id,content,created_at,updated_at FROM comments WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.SuggestionID, &authorID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Comment{}, err
	}
	if authorID.Valid {
		a := uint64(authorID.Int64)
		c.AuthorID = &a
	}
	return c, nil
}

// Update rewrites the comment content.
func (r *CommentRepo) Update(ctx context.Context, id uint64, content string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content=?, updated_at=NOW() WHERE id=?",
		content, id)
	return err
}

// Tombstone soft-deletes a comment: the content becomes the sentinel and
// the author reference is cleared. Running it twice is harmless, but the
// handler avoids the second write anyway.
func (r *CommentRepo) Tombstone(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content=?, author_id=NULL, updated_at=NOW() WHERE id=?",
		model.TombstoneContent, id)
	return err
}
