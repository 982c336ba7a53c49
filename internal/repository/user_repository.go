package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/avetisk/civic-voice/internal/model"
)

// UserRepo persists users and their single active refresh token. The
// refresh token lives as two nullable columns on the users row, so
// rotation is a plain per-row UPDATE: no extra locking is needed, and a
// concurrent rotation for the same user resolves last-writer-wins (the
// loser's next refresh simply fails validation).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,display_name,email,password_hash,role,status,refresh_token_hash,refresh_token_expires_at,created_at,updated_at"

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, display_name, email, password_hash, role, status) VALUES (?,?,?,?,?,?)",
		u.Username, u.DisplayName, u.Email, u.PasswordHash, string(u.Role), string(u.Status))
	if err != nil {
		// MySQL duplicate key; the index name tells us which column clashed.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			if strings.Contains(strings.ToLower(err.Error()), "email") {
				return 0, ErrEmailExists
			}
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByUsername fetches a user by normalized username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// FindByRefreshTokenHash fetches the user whose stored refresh token hash
// equals the given value exactly. Expiry is returned as stored; the auth
// layer owns the expiry decision.
func (r *UserRepo) FindByRefreshTokenHash(ctx context.Context, hash string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token_hash=? LIMIT 1", hash)
}

// SaveRefreshToken overwrites the user's refresh token hash and expiry.
func (r *UserRepo) SaveRefreshToken(ctx context.Context, userID uint64, hash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=?, updated_at=NOW() WHERE id=?",
		hash, exp, userID)
	return err
}

// ClearRefreshToken nulls out the user's refresh token columns.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL, updated_at=NOW() WHERE id=?",
		userID)
	return err
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg any) (model.User, error) {
	var (
		u         model.User
		role      string
		status    string
		tokenHash sql.NullString
		tokenExp  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash,
		&role, &status, &tokenHash, &tokenExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.Status = model.AccountStatus(status)
	if tokenHash.Valid {
		h := tokenHash.String
		u.RefreshTokenHash = &h
	}
	if tokenExp.Valid {
		t := tokenExp.Time
		u.RefreshTokenExpiresAt = &t
	}
	return u, nil
}
