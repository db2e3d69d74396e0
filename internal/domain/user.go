package domain

import (
	"strings"
	"time"

	"github.com/wandertrails/tours-api/internal/validate"
)

// Valid user roles
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

var validRoles = map[string]bool{
	RoleUser:      true,
	RoleGuide:     true,
	RoleLeadGuide: true,
	RoleAdmin:     true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo,omitempty"`
	Role              string     `json:"role"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    *string    `json:"-"`
	ResetExpiresAt    *time.Time `json:"-"`
	Active            bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"-"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. Issue times carry second precision, so the stored
// timestamp is truncated before comparing.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

// UserInfo is the sanitized outward representation; credential material never
// leaves through it.
type UserInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Role:  u.Role,
	}
}

// SignupRequest carries only the allow-listed public registration fields.
// Role deliberately has no place here.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r *SignupRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

func (r *SignupRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "name", Ok: validate.NotBlank(r.Name), Message: "name is required"},
		validate.Rule{Field: "name", Ok: r.Name == "" || validate.LenBetween(r.Name, 2, 40), Message: "name must be between 2 and 40 characters"},
		validate.Rule{Field: "email", Ok: validate.NotBlank(r.Email), Message: "email is required"},
		validate.Rule{Field: "email", Ok: r.Email == "" || validate.Email(r.Email), Message: "invalid email format"},
		validate.Rule{Field: "password", Ok: validate.MinLen(r.Password, 8), Message: "password must be at least 8 characters"},
		validate.Rule{Field: "passwordConfirm", Ok: r.Password == r.PasswordConfirm, Message: "passwords do not match"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "email", Ok: validate.NotBlank(r.Email), Message: "email is required"},
		validate.Rule{Field: "password", Ok: validate.NotBlank(r.Password), Message: "password is required"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r *ResetPasswordRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "password", Ok: validate.MinLen(r.Password, 8), Message: "password must be at least 8 characters"},
		validate.Rule{Field: "passwordConfirm", Ok: r.Password == r.PasswordConfirm, Message: "passwords do not match"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r *UpdatePasswordRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "passwordCurrent", Ok: validate.NotBlank(r.PasswordCurrent), Message: "current password is required"},
		validate.Rule{Field: "password", Ok: validate.MinLen(r.Password, 8), Message: "password must be at least 8 characters"},
		validate.Rule{Field: "passwordConfirm", Ok: r.Password == r.PasswordConfirm, Message: "passwords do not match"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

// UpdateMeRequest is the allow-listed self-service profile update. Password
// and role updates go through their own operations.
type UpdateMeRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (r *UpdateMeRequest) Normalize() {
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
}

func (r *UpdateMeRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "name", Ok: r.Name == nil || validate.LenBetween(*r.Name, 2, 40), Message: "name must be between 2 and 40 characters"},
		validate.Rule{Field: "email", Ok: r.Email == nil || validate.Email(*r.Email), Message: "invalid email format"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

// AdminUpdateUserRequest is the admin-side user update; the only place a role
// can be assigned from a request body.
type AdminUpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

func (r *AdminUpdateUserRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "name", Ok: r.Name == nil || validate.LenBetween(*r.Name, 2, 40), Message: "name must be between 2 and 40 characters"},
		validate.Rule{Field: "email", Ok: r.Email == nil || validate.Email(*r.Email), Message: "invalid email format"},
		validate.Rule{Field: "role", Ok: r.Role == nil || IsValidRole(*r.Role), Message: "invalid role"},
	)
	if errs != nil {
		return errs
	}
	return nil
}
