package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/config"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/query"
	"github.com/wandertrails/tours-api/internal/repo/postgres"
)

// UserService is the admin-side user management surface; self-service
// operations live on AuthService.
type UserService interface {
	Create(ctx context.Context, req *domain.SignupRequest) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, plan query.Plan) ([]domain.User, error)
	Update(ctx context.Context, id int64, req *domain.AdminUpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	users      postgres.UserRepository
	hashParams *argon2id.Params
}

func NewUserService(users postgres.UserRepository, cfg *config.Config) UserService {
	return &userService{
		users: users,
		hashParams: &argon2id.Params{
			Memory:      cfg.Auth.HashMemory,
			Iterations:  cfg.Auth.HashIterations,
			Parallelism: cfg.Auth.HashParallelism,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

func (s *userService) Create(ctx context.Context, req *domain.SignupRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperror.BadRequest("a user with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, plan query.Plan) ([]domain.User, error) {
	users, err := s.users.List(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id int64, req *domain.AdminUpdateUserRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	user, err := s.users.AdminUpdate(ctx, id, req)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperror.BadRequest("a user with this email already exists")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}

	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no user found with that id")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
