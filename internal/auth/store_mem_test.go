package auth

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/avetisk/civic-voice/internal/model"
)

// memStore is an in-memory Store for protocol tests. It mirrors the
// repository's semantics: sql.ErrNoRows for misses, exact hash matching,
// overwrite-on-save.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*model.User
}

func newMemStore() *memStore {
	return &memStore{users: map[uint64]*model.User{}}
}

func (m *memStore) Create(_ context.Context, u model.User) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = &u
	return u.ID, nil
}

func (m *memStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memStore) FindByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return *u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memStore) FindByRefreshTokenHash(_ context.Context, hash string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RefreshTokenHash != nil && *u.RefreshTokenHash == hash {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memStore) SaveRefreshToken(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.RefreshTokenHash = &hash
	u.RefreshTokenExpiresAt = &exp
	return nil
}

func (m *memStore) ClearRefreshToken(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.RefreshTokenHash = nil
	u.RefreshTokenExpiresAt = nil
	return nil
}

// setRefreshExpiry rewrites a user's stored expiry, letting tests place a
// token exactly at or past its boundary.
func (m *memStore) setRefreshExpiry(userID uint64, exp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		e := exp
		u.RefreshTokenExpiresAt = &e
	}
}
