package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/config"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/events"
	"github.com/wandertrails/tours-api/internal/platform/token"
	"github.com/wandertrails/tours-api/internal/query"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		nextID:  1,
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, name, email, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:           m.nextID,
		Name:         name,
		Email:        email,
		Role:         domain.RoleUser,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u := m.byID[id]
	if u == nil || !u.Active {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u := m.byEmail[email]
	if u == nil || !u.Active {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByResetTokenHash(_ context.Context, tokenHash string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetExpiresAt != nil && u.ResetExpiresAt.After(time.Now()) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context, _ query.Plan) ([]domain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id int64, req *domain.UpdateMeRequest) (*domain.User, error) {
	u := m.byID[id]
	if u == nil {
		return nil, nil
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		delete(m.byEmail, u.Email)
		u.Email = *req.Email
		m.byEmail[u.Email] = u
	}
	return u, nil
}

func (m *mockUserRepo) AdminUpdate(_ context.Context, id int64, _ *domain.AdminUpdateUserRequest) (*domain.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	if m.byID[id] == nil {
		return pgx.ErrNoRows
	}
	delete(m.byEmail, m.byID[id].Email)
	delete(m.byID, id)
	return nil
}

func (m *mockUserRepo) Deactivate(_ context.Context, id int64) error {
	u := m.byID[id]
	if u == nil {
		return pgx.ErrNoRows
	}
	u.Active = false
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string, changedAt time.Time) error {
	u := m.byID[id]
	if u == nil {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	return nil
}

func (m *mockUserRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	u := m.byID[id]
	if u == nil {
		return pgx.ErrNoRows
	}
	u.ResetTokenHash = &tokenHash
	u.ResetExpiresAt = &expiresAt
	return nil
}

func (m *mockUserRepo) ClearResetToken(_ context.Context, id int64) error {
	u := m.byID[id]
	if u == nil {
		return pgx.ErrNoRows
	}
	u.ResetTokenHash = nil
	u.ResetExpiresAt = nil
	return nil
}

func (m *mockUserRepo) ConsumeResetToken(_ context.Context, id int64, passwordHash string, changedAt time.Time) error {
	u := m.byID[id]
	if u == nil || u.ResetTokenHash == nil {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.ResetTokenHash = nil
	u.ResetExpiresAt = nil
	return nil
}

type mockMailer struct {
	resetTo    string
	resetToken string
	sendErr    error
}

func (m *mockMailer) SendPasswordReset(toEmail, _, _, token string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.resetTo = toEmail
	m.resetToken = token
	return nil
}

func (m *mockMailer) SendWelcome(_, _ string) error { return nil }

// ---------- Fixtures ----------

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			CookieTTL:     time.Hour,
			ResetTokenTTL: 10 * time.Minute,
			// minimal work factors keep the suite fast
			HashMemory:      8 * 1024,
			HashIterations:  1,
			HashParallelism: 1,
		},
	}
}

func newAuthFixture() (AuthService, *mockUserRepo, *mockMailer, *config.Config) {
	repo := newMockUserRepo()
	mail := &mockMailer{}
	cfg := testConfig()
	return NewAuthService(repo, mail, events.NoopPublisher{}, cfg), repo, mail, cfg
}

func signupReq() *domain.SignupRequest {
	return &domain.SignupRequest{
		Name:            "Ayla Jensen",
		Email:           "Ayla@Example.com",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
	}
}

// ---------- Tests ----------

func TestSignup_HashesAndIssuesToken(t *testing.T) {
	svc, repo, _, cfg := newAuthFixture()

	user, tok, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	assert.Equal(t, "ayla@example.com", user.Email, "email is lowercased")
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, "correct-horse", user.PasswordHash, "plaintext never stored")

	claims, err := token.Parse(tok, cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Sub)

	require.NotNil(t, repo.byEmail["ayla@example.com"])
}

func TestSignup_ConfirmMismatch_NoPartialWrite(t *testing.T) {
	svc, repo, _, _ := newAuthFixture()

	req := signupReq()
	req.Password = "abcdefgh"
	req.PasswordConfirm = "xyzxyzxy"

	_, _, err := svc.Signup(context.Background(), req)
	require.Error(t, err)

	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Empty(t, repo.byID, "no record may be created on validation failure")
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	_, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	user, tok, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ayla@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, "ayla@example.com", user.Email)
}

func TestLogin_UniformFailure(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	_, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ayla@example.com",
		Password: "not-the-password",
	})
	_, _, unknownEmail := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-pass",
	})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)

	a, ok := apperror.Operational(wrongPassword)
	require.True(t, ok)
	b, ok := apperror.Operational(unknownEmail)
	require.True(t, ok)

	assert.Equal(t, a.StatusCode, b.StatusCode)
	assert.Equal(t, a.Message, b.Message, "wrong password and unknown email must be indistinguishable")
}

func TestAuthenticate_RejectsTokenPredatingPasswordChange(t *testing.T) {
	svc, repo, _, cfg := newAuthFixture()
	user, tok, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	// token still valid by signature and expiry
	changedAt := time.Now().Add(2 * time.Second)
	repo.byID[user.ID].PasswordChangedAt = &changedAt

	_, err = svc.Authenticate(context.Background(), tok)
	require.Error(t, err)
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)

	// sanity: the same token verifies on its own
	_, parseErr := token.Parse(tok, cfg.Auth.JWTSecret)
	assert.NoError(t, parseErr)
}

func TestAuthenticate_ExpiredAndGarbageTokens(t *testing.T) {
	svc, _, _, cfg := newAuthFixture()

	expired, err := token.Sign(1, cfg.Auth.JWTSecret, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), expired)
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)

	_, err = svc.Authenticate(context.Background(), "not-a-token")
	appErr, ok = apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestAuthenticate_DeactivatedUser(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	user, tok, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMe(context.Background(), user.ID))

	_, err = svc.Authenticate(context.Background(), tok)
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestForgotPassword_UnknownEmail404(t *testing.T) {
	svc, repo, mail, _ := newAuthFixture()

	err := svc.ForgotPassword(context.Background(), "nobody@example.com", "https://app/reset")
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
	assert.Empty(t, repo.byID)
	assert.Empty(t, mail.resetToken, "no mail goes out for unknown emails")
}

func TestForgotPassword_StoresHashNotPlaintext(t *testing.T) {
	svc, repo, mail, _ := newAuthFixture()
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), user.Email, "https://app/reset"))

	stored := repo.byID[user.ID]
	require.NotNil(t, stored.ResetTokenHash)
	require.NotNil(t, stored.ResetExpiresAt)
	assert.NotEmpty(t, mail.resetToken)
	assert.NotEqual(t, mail.resetToken, *stored.ResetTokenHash, "only the hash may be persisted")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.ResetExpiresAt, time.Minute)
}

func TestForgotPassword_MailFailureRollsBack(t *testing.T) {
	svc, repo, mail, _ := newAuthFixture()
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	mail.sendErr = errors.New("smtp down")

	err = svc.ForgotPassword(context.Background(), user.Email, "https://app/reset")
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.StatusCode)

	stored := repo.byID[user.ID]
	assert.Nil(t, stored.ResetTokenHash, "a token the user never received must not stay usable")
	assert.Nil(t, stored.ResetExpiresAt)
}

func TestResetPassword_ConsumedOnce(t *testing.T) {
	svc, _, mail, _ := newAuthFixture()
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), user.Email, "https://app/reset"))
	raw := mail.resetToken

	req := &domain.ResetPasswordRequest{Password: "brand-new-pass", PasswordConfirm: "brand-new-pass"}
	_, tok, err := svc.ResetPassword(context.Background(), raw, req)
	require.NoError(t, err)
	assert.NotEmpty(t, tok, "reset logs the user straight in")

	// the new password works
	_, _, err = svc.Login(context.Background(), &domain.LoginRequest{Email: user.Email, Password: "brand-new-pass"})
	require.NoError(t, err)

	// second use of the same plaintext token fails
	_, _, err = svc.ResetPassword(context.Background(), raw, req)
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "invalid or has expired")
}

func TestResetPassword_GarbageToken(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	req := &domain.ResetPasswordRequest{Password: "brand-new-pass", PasswordConfirm: "brand-new-pass"}
	_, _, err := svc.ResetPassword(context.Background(), "ffffffff", req)
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestUpdatePassword(t *testing.T) {
	svc, repo, _, _ := newAuthFixture()
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	// wrong current password
	_, err = svc.UpdatePassword(context.Background(), repo.byID[user.ID], &domain.UpdatePasswordRequest{
		PasswordCurrent: "wrong-current",
		Password:        "next-password",
		PasswordConfirm: "next-password",
	})
	appErr, ok := apperror.Operational(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)

	// correct current password
	tok, err := svc.UpdatePassword(context.Background(), repo.byID[user.ID], &domain.UpdatePasswordRequest{
		PasswordCurrent: "correct-horse",
		Password:        "next-password",
		PasswordConfirm: "next-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	stored := repo.byID[user.ID]
	require.NotNil(t, stored.PasswordChangedAt)
	assert.True(t, stored.PasswordChangedAt.Before(time.Now()), "change timestamp sits before the save completes")

	_, _, err = svc.Login(context.Background(), &domain.LoginRequest{Email: user.Email, Password: "next-password"})
	require.NoError(t, err)
}

func TestUpdateMe_AllowListedFieldsOnly(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	user, _, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	name := "New Name"
	updated, err := svc.UpdateMe(context.Background(), user.ID, &domain.UpdateMeRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, user.Email, updated.Email)
}
