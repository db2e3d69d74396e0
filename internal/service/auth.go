package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/config"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/events"
	"github.com/wandertrails/tours-api/internal/mailer"
	"github.com/wandertrails/tours-api/internal/platform/token"
	"github.com/wandertrails/tours-api/internal/repo/postgres"
	"github.com/wandertrails/tours-api/pkg/logger"
)

// uniform credential failure; identical whether the email is unknown or the
// password is wrong, so accounts cannot be enumerated through login
const msgBadCredentials = "incorrect email or password"

type AuthService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error)
	Authenticate(ctx context.Context, rawToken string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, rawToken string, req *domain.ResetPasswordRequest) (*domain.User, string, error)
	UpdatePassword(ctx context.Context, user *domain.User, req *domain.UpdatePasswordRequest) (string, error)
	UpdateMe(ctx context.Context, userID int64, req *domain.UpdateMeRequest) (*domain.User, error)
	DeleteMe(ctx context.Context, userID int64) error
}

type authService struct {
	users      postgres.UserRepository
	mailer     mailer.Service
	bus        events.Publisher
	cfg        *config.Config
	hashParams *argon2id.Params
}

func NewAuthService(users postgres.UserRepository, mail mailer.Service, bus events.Publisher, cfg *config.Config) AuthService {
	return &authService{
		users:  users,
		mailer: mail,
		bus:    bus,
		cfg:    cfg,
		hashParams: &argon2id.Params{
			Memory:      cfg.Auth.HashMemory,
			Iterations:  cfg.Auth.HashIterations,
			Parallelism: cfg.Auth.HashParallelism,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

func (s *authService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", apperror.BadRequest(err.Error())
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.hashParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, "", apperror.BadRequest("a user with this email already exists")
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	tok, err := token.Sign(user.ID, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.bus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	if err := s.mailer.SendWelcome(user.Email, user.Name); err != nil {
		// a failed welcome mail never fails the signup
		logger.WarnContext(ctx, "failed to send welcome email", "error", err, "user_id", user.ID)
	}

	return user, tok, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", apperror.BadRequest(err.Error())
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", apperror.Unauthorized(msgBadCredentials)
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, "", apperror.Unauthorized(msgBadCredentials)
	}

	tok, err := token.Sign(user.ID, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	return user, tok, nil
}

// Authenticate verifies a presented session token end to end: signature and
// expiry, the subject still existing, and the token not predating the
// subject's last password change.
func (s *authService) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	claims, err := token.Parse(rawToken, s.cfg.Auth.JWTSecret)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, apperror.Unauthorized("your token has expired, please log in again")
		}
		return nil, apperror.Unauthorized("invalid token, please log in again")
	}

	user, err := s.users.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("the user belonging to this token no longer exists")
	}

	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperror.Unauthorized("password was changed recently, please log in again")
	}

	return user, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return apperror.NotFound("there is no user with that email address")
	}

	rawToken, tokenHash, err := newResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := time.Now().Add(s.cfg.Auth.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/%s", resetURLBase, rawToken)
	if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL, rawToken); err != nil {
		// never leave a usable token behind when the user was not notified
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			logger.ErrorContext(ctx, "failed to roll back reset token", "error", clearErr, "user_id", user.ID)
		}
		return apperror.Wrap(500, "there was an error sending the email, try again later", err)
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, rawToken string, req *domain.ResetPasswordRequest) (*domain.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", apperror.BadRequest(err.Error())
	}

	user, err := s.users.FindByResetTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user == nil {
		return nil, "", apperror.BadRequest("token is invalid or has expired")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.hashParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	// backdate the change so a token issued right after still reads as fresh
	changedAt := time.Now().Add(-time.Second)
	if err := s.users.ConsumeResetToken(ctx, user.ID, passwordHash, changedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperror.BadRequest("token is invalid or has expired")
		}
		return nil, "", fmt.Errorf("failed to reset password: %w", err)
	}

	if err := s.bus.Publish(ctx, events.PasswordReset, events.PasswordResetEvent{
		UserID:  user.ID,
		ResetAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish password reset event", "error", err, "user_id", user.ID)
	}

	tok, err := token.Sign(user.ID, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	user.PasswordHash = passwordHash
	user.PasswordChangedAt = &changedAt
	user.ResetTokenHash = nil
	user.ResetExpiresAt = nil

	return user, tok, nil
}

func (s *authService) UpdatePassword(ctx context.Context, user *domain.User, req *domain.UpdatePasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", apperror.BadRequest(err.Error())
	}

	match, err := argon2id.ComparePasswordAndHash(req.PasswordCurrent, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return "", apperror.Unauthorized("your current password is wrong")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.hashParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := time.Now().Add(-time.Second)
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash, changedAt); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	// a fresh token keeps the caller logged in across their own change
	tok, err := token.Sign(user.ID, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tok, nil
}

func (s *authService) UpdateMe(ctx context.Context, userID int64, req *domain.UpdateMeRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	user, err := s.users.UpdateProfile(ctx, userID, req)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperror.BadRequest("a user with this email already exists")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}

	return user, nil
}

func (s *authService) DeleteMe(ctx context.Context, userID int64) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no user found with that id")
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// newResetToken returns the plaintext handshake token and the hash that is
// the only thing ever persisted.
func newResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
