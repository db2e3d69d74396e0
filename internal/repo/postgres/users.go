package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/query"
)

type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	List(ctx context.Context, plan query.Plan) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id int64, req *domain.UpdateMeRequest) (*domain.User, error)
	AdminUpdate(ctx context.Context, id int64, req *domain.AdminUpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id int64) error
	ConsumeResetToken(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userCols = `id, name, email, photo, role, password_hash, password_changed_at, reset_token_hash, reset_expires_at, active, created_at, updated_at`

// query-string field name -> column, for the list endpoint
var userColMap = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&u.PasswordChangedAt, &u.ResetTokenHash, &u.ResetExpiresAt,
		&u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	const q = `
		INSERT INTO users (name, email, role, password_hash, active)
		VALUES ($1, $2, 'user', $3, true)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, q, name, email, passwordHash))
	if err != nil {
		return nil, mapPgError(err)
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1 AND active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1 AND active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, q, email))
}

// FindByResetTokenHash matches only an unexpired reset handshake; an expired
// token behaves exactly like an unknown one.
func (r *userRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE reset_token_hash = $1 AND reset_expires_at > now() AND active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, q, tokenHash))
}

func (r *userRepository) List(ctx context.Context, plan query.Plan) ([]domain.User, error) {
	q, args := buildListQuery(userCols, "users", []string{"active"}, nil, userColMap, plan)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req *domain.UpdateMeRequest) (*domain.User, error) {
	const q = `
		UPDATE users
		SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			updated_at = now()
		WHERE id = $1 AND active
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, q, id, req.Name, req.Email))
	if err != nil {
		return nil, mapPgError(err)
	}
	return u, nil
}

func (r *userRepository) AdminUpdate(ctx context.Context, id int64, req *domain.AdminUpdateUserRequest) (*domain.User, error) {
	const q = `
		UPDATE users
		SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			role = COALESCE($4, role),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, q, id, req.Name, req.Email, req.Role))
	if err != nil {
		return nil, mapPgError(err)
	}
	return u, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Deactivate is the soft delete behind DELETE /users/delete-me.
func (r *userRepository) Deactivate(ctx context.Context, id int64) error {
	const q = `UPDATE users SET active = false, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	const q = `UPDATE users SET password_hash = $2, password_changed_at = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id, passwordHash, changedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	const q = `UPDATE users SET reset_token_hash = $2, reset_expires_at = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) ClearResetToken(ctx context.Context, id int64) error {
	const q = `UPDATE users SET reset_token_hash = NULL, reset_expires_at = NULL, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, q, id)
	return err
}

// ConsumeResetToken replaces the password and clears the handshake pair in
// one statement, so a reset token cannot be spent twice.
func (r *userRepository) ConsumeResetToken(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	const q = `
		UPDATE users
		SET
			password_hash = $2,
			password_changed_at = $3,
			reset_token_hash = NULL,
			reset_expires_at = NULL,
			updated_at = now()
		WHERE id = $1 AND reset_token_hash IS NOT NULL`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id, passwordHash, changedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
