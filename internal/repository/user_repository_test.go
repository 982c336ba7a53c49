package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avetisk/civic-voice/internal/model"
)

func userRows(t *testing.T, u model.User) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "username", "display_name", "email", "password_hash", "role",
		"status", "refresh_token_hash", "refresh_token_expires_at", "created_at", "updated_at",
	})
	var hash interface{}
	if u.RefreshTokenHash != nil {
		hash = *u.RefreshTokenHash
	}
	var exp interface{}
	if u.RefreshTokenExpiresAt != nil {
		exp = *u.RefreshTokenExpiresAt
	}
	rows.AddRow(u.ID, u.Username, u.DisplayName, u.Email, u.PasswordHash,
		string(u.Role), string(u.Status), hash, exp, u.CreatedAt, u.UpdatedAt)
	return rows
}

func TestFindByRefreshTokenHashExactMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	exp := time.Now().UTC().Add(72 * time.Hour)
	hash := "abc123"
	u := model.User{
		ID: 7, Username: "alice", DisplayName: "alice", Email: "alice@example.com",
		PasswordHash: "x", Role: model.RoleRegular, Status: model.StatusActive,
		RefreshTokenHash: &hash, RefreshTokenExpiresAt: &exp,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE refresh_token_hash=?")).
		WithArgs(hash).
		WillReturnRows(userRows(t, u))

	got, err := repo.FindByRefreshTokenHash(context.Background(), hash)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != 7 || got.RefreshTokenHash == nil || *got.RefreshTokenHash != hash {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.RefreshTokenExpiresAt == nil || !got.RefreshTokenExpiresAt.Equal(exp) {
		t.Fatalf("expiry not round-tripped: %v", got.RefreshTokenExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindByRefreshTokenHashMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE refresh_token_hash=?")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByRefreshTokenHash(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("got %v, want sql.ErrNoRows", err)
	}
}

func TestSaveRefreshTokenOverwrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	exp := time.Now().UTC().Add(7 * 24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=?, updated_at=NOW() WHERE id=?")).
		WithArgs("newhash", exp, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveRefreshToken(context.Background(), 7, "newhash", exp); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestClearRefreshTokenNullsColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("SET refresh_token_hash=NULL, refresh_token_expires_at=NULL")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearRefreshToken(context.Background(), 7); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.username'"))

	_, err = repo.Create(context.Background(), model.User{Username: "alice"})
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("got %v, want ErrUsernameExists", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@b.c' for key 'users.email'"))

	_, err = repo.Create(context.Background(), model.User{Username: "alice", Email: "a@b.c"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("got %v, want ErrEmailExists", err)
	}
}
