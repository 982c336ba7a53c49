package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avetisk/civic-voice/internal/model"
)

// refreshTokenBytes is the entropy of a raw refresh token before encoding.
const refreshTokenBytes = 64

// AccessToken is a signed HS256 JWT along with its expiry. Access tokens
// are short-lived, self-contained and never persisted server-side.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque token used to mint new access
// tokens. Raw is returned to the client once; the database keeps only the
// SHA-256 hash.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// TokenPair is the result of one issuance.
type TokenPair struct {
	Access  AccessToken
	Refresh RefreshToken
}

// Issuer mints token pairs for users. It is stateless apart from the
// store it persists refresh tokens into.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      Store
}

// NewIssuer builds an Issuer. The secret must already be validated by the
// config layer; an empty secret never reaches this point in a correctly
// configured process.
func NewIssuer(secret string, accessTTLMin, refreshTTLDays int, store Store) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMin) * time.Minute,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
		store:      store,
	}
}

// Issue signs a fresh access token and generates a new refresh token for
// the user. The refresh token (hash + expiry) is persisted before the pair
// is returned, overwriting whatever token the user had: a new login or
// refresh silently ends the previous session.
//
// Access token claims: sub (user id), name, email, role, jti (unique per
// issuance), iat and exp.
func (i *Issuer) Issue(ctx context.Context, u model.User) (TokenPair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(i.accessTTL)
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"name":  u.DisplayName,
		"email": u.Email,
		"role":  string(u.Role),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   accessExp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return TokenPair{}, err
	}

	raw, err := newRefreshRaw()
	if err != nil {
		return TokenPair{}, err
	}
	refreshExp := now.Add(i.refreshTTL)
	if err := i.store.SaveRefreshToken(ctx, u.ID, HashRefreshRaw(raw), refreshExp); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		Access:  AccessToken{Token: signed, Exp: accessExp},
		Refresh: RefreshToken{Raw: raw, Exp: refreshExp},
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as a hex
// string. Only the hash is stored, so a leaked database row cannot be
// replayed as a token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// newRefreshRaw returns a base64url token built from crypto/rand. It is
// never derived from user attributes or timestamps.
func newRefreshRaw() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
