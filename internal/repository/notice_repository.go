package repository

import (
	"context"
	"database/sql"

	"github.com/avetisk/civic-voice/internal/model"
)

// NoticeRepo persists moderator notices.
type NoticeRepo struct{ DB *sql.DB }

func NewNoticeRepo(db *sql.DB) *NoticeRepo { return &NoticeRepo{DB: db} }

// Create inserts a notice and returns its ID.
func (r *NoticeRepo) Create(ctx context.Context, n model.Notice) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notices (moderator_id, title, body) VALUES (?,?,?)",
		n.ModeratorID, n.Title, n.Body)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a notice by id.
func (r *NoticeRepo) GetByID(ctx context.Context, id uint64) (model.Notice, error) {
	var n model.Notice
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,moderator_id,title,body,published_at FROM notices WHERE id=? LIMIT 1",
		id).Scan(&n.ID, &n.ModeratorID, &n.Title, &n.Body, &n.PublishedAt)
	return n, err
}

// Delete removes a notice.
func (r *NoticeRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM notices WHERE id=?", id)
	return err
}
