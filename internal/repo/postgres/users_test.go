package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandertrails/tours-api/internal/domain"
)

func newUserFixture(t *testing.T) (UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func userColumns() []string {
	return []string{
		"id", "name", "email", "photo", "role", "password_hash",
		"password_changed_at", "reset_token_hash", "reset_expires_at",
		"active", "created_at", "updated_at",
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns()).AddRow(
		u.ID, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
		u.PasswordChangedAt, u.ResetTokenHash, u.ResetExpiresAt,
		u.Active, u.CreatedAt, u.UpdatedAt,
	)
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           42,
		Name:         "Ayla Jensen",
		Email:        "ayla@example.com",
		Role:         domain.RoleUser,
		PasswordHash: "argon2id$hash",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserFixture(t)
	u := sampleUser()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.Name, u.Email, u.PasswordHash).
		WillReturnRows(userRow(u))

	got, err := repo.Create(context.Background(), u.Name, u.Email, u.PasswordHash)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserFixture(t)
	u := sampleUser()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.Name, u.Email, u.PasswordHash).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), u.Name, u.Email, u.PasswordHash)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_Missing(t *testing.T) {
	repo, mock := newUserFixture(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email =").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got, "unknown email reads as absent, not as an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ConsumeResetToken_OnlyOnce(t *testing.T) {
	repo, mock := newUserFixture(t)
	changedAt := time.Now().Add(-time.Second)

	mock.ExpectExec("UPDATE users").
		WithArgs(int64(42), "newhash", changedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(42), "newhash", changedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.ConsumeResetToken(context.Background(), 42, "newhash", changedAt))

	err := repo.ConsumeResetToken(context.Background(), 42, "newhash", changedAt)
	assert.True(t, errors.Is(err, pgx.ErrNoRows), "second consumption must fail")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Deactivate(t *testing.T) {
	repo, mock := newUserFixture(t)

	mock.ExpectExec("UPDATE users SET active = false").
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Deactivate(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
