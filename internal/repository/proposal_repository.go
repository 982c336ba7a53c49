package repository

import (
	"context"
	"database/sql"

	"github.com/avetisk/civic-voice/internal/model"
)

// ProposalRepo persists municipal proposals.
type ProposalRepo struct{ DB *sql.DB }

func NewProposalRepo(db *sql.DB) *ProposalRepo { return &ProposalRepo{DB: db} }

// Create inserts a proposal and returns its ID.
func (r *ProposalRepo) Create(ctx context.Context, p model.Proposal) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO proposals (moderator_id, title, description, city) VALUES (?,?,?,?)",
		p.ModeratorID, p.Title, p.Description, p.City)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a proposal by id.
func (r *ProposalRepo) GetByID(ctx context.Context, id uint64) (model.Proposal, error) {
	var p model.Proposal
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,moderator_id,title,description,city,created_at,updated_at FROM proposals WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.ModeratorID, &p.Title, &p.Description, &p.City, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
