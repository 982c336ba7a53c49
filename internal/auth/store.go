package auth

import (
	"context"
	"time"

	"github.com/avetisk/civic-voice/internal/model"
)

// Store is the persistence surface the auth core needs from the user
// table. The repository layer implements it; tests swap in an in-memory
// version. All methods are durable and immediately consistent for a single
// user row.
type Store interface {
	// Create inserts a new user and returns its ID. Duplicate usernames
	// or emails surface as repository sentinel errors.
	Create(ctx context.Context, u model.User) (uint64, error)

	// FindByUsername fetches a user by normalized username. Returns
	// sql.ErrNoRows when no user matches.
	FindByUsername(ctx context.Context, username string) (model.User, error)

	// FindByID fetches a user by id.
	FindByID(ctx context.Context, id uint64) (model.User, error)

	// FindByRefreshTokenHash fetches the user whose stored refresh token
	// hash equals the given value exactly. Returns sql.ErrNoRows when no
	// user matches.
	FindByRefreshTokenHash(ctx context.Context, hash string) (model.User, error)

	// SaveRefreshToken overwrites the user's refresh token hash and
	// expiry. Overwriting is what makes rotation and the single-session
	// model work: the previous token stops matching any row.
	SaveRefreshToken(ctx context.Context, userID uint64, hash string, exp time.Time) error

	// ClearRefreshToken nulls out the user's refresh token columns.
	ClearRefreshToken(ctx context.Context, userID uint64) error
}
