package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/avetisk/civic-voice/internal/model"
)

// Service implements the credential protocol: login, registration, refresh
// rotation and best-effort logout. HTTP concerns (cookies, status codes)
// stay in the handler layer.
type Service struct {
	store      Store
	issuer     *Issuer
	bcryptCost int
}

func NewService(store Store, issuer *Issuer, bcryptCost int) *Service {
	return &Service{store: store, issuer: issuer, bcryptCost: bcryptCost}
}

// Login verifies the username/password pair and issues a fresh token pair.
// Every rejection path returns ErrInvalidCredentials; the concrete reason
// is logged here and nowhere else.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}

	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("auth: login rejected, unknown username %q", username)
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, err
	}
	if u.Status != model.StatusActive {
		log.Printf("auth: login rejected, user %d status %s", u.ID, u.Status)
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !VerifyPassword(u.PasswordHash, password) {
		log.Printf("auth: login rejected, bad password for user %d", u.ID)
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.Issue(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates a presented refresh token and, if it is the current
// one for some user and not yet expired, rotates it: a new pair is issued
// and the presented token stops working immediately. Failure is terminal
// for the call; there is no retry and no partial result.
func (s *Service) Refresh(ctx context.Context, presented string) (model.User, TokenPair, error) {
	if presented == "" {
		return model.User{}, TokenPair{}, ErrInvalidRefresh
	}

	u, err := s.store.FindByRefreshTokenHash(ctx, HashRefreshRaw(presented))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, TokenPair{}, ErrInvalidRefresh
		}
		return model.User{}, TokenPair{}, err
	}

	// Strict boundary: a token whose expiry equals the current instant is
	// already dead.
	exp := u.RefreshTokenExpiresAt
	if exp == nil || !exp.After(time.Now().UTC()) {
		log.Printf("auth: refresh rejected, expired token for user %d", u.ID)
		return model.User{}, TokenPair{}, ErrInvalidRefresh
	}
	if u.Status != model.StatusActive {
		log.Printf("auth: refresh rejected, user %d status %s", u.ID, u.Status)
		return model.User{}, TokenPair{}, ErrInvalidRefresh
	}

	pair, err := s.issuer.Issue(ctx, u) // rotation happens inside Issue
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Register creates a new active regular user. The display name defaults to
// the username when not given.
func (s *Service) Register(ctx context.Context, username, email, password string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Username:     username,
		DisplayName:  username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleRegular,
		Status:       model.StatusActive,
	}
	id, err := s.store.Create(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	u.ID = id
	return u, nil
}

// Logout invalidates the stored refresh token when the presented one still
// matches it. It is best-effort: the client clears its cookie regardless,
// so a store failure here must not fail the request and no error is returned.
func (s *Service) Logout(ctx context.Context, presented string) {
	if presented == "" {
		return
	}
	u, err := s.store.FindByRefreshTokenHash(ctx, HashRefreshRaw(presented))
	if err != nil {
		return
	}
	if err := s.store.ClearRefreshToken(ctx, u.ID); err != nil {
		log.Printf("auth: logout: clearing refresh token for user %d failed: %v", u.ID, err)
	}
}
