package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/http/middleware"
	"github.com/wandertrails/tours-api/internal/http/response"
)

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	user, token, err := h.Auth.Signup(r.Context(), &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	response.SuccessToken(w, http.StatusCreated, token, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	user, token, err := h.Auth.Login(r.Context(), &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	response.SuccessToken(w, http.StatusOK, token, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		h.error(w, r, apperror.BadRequest("email is required"))
		return
	}

	resetURLBase := h.resetURLBase(r)
	if err := h.Auth.ForgotPassword(r.Context(), req.Email, resetURLBase); err != nil {
		h.error(w, r, err)
		return
	}

	response.Message(w, http.StatusOK, "token sent to email")
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	rawToken := chi.URLParam(r, "resetToken")
	if rawToken == "" {
		h.error(w, r, apperror.BadRequest("token is invalid or has expired"))
		return
	}

	var req domain.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	user, token, err := h.Auth.ResetPassword(r.Context(), rawToken, &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	response.SuccessToken(w, http.StatusOK, token, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		h.error(w, r, errMissingUser)
		return
	}

	var req domain.UpdatePasswordRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	token, err := h.Auth.UpdatePassword(r.Context(), user, &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	response.SuccessToken(w, http.StatusOK, token, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		h.error(w, r, errMissingUser)
		return
	}

	var req domain.UpdateMeRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	updated, err := h.Auth.UpdateMe(r.Context(), user.ID, &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"user": updated.ToUserInfo()})
}

func (h *Handlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		h.error(w, r, errMissingUser)
		return
	}

	if err := h.Auth.DeleteMe(r.Context(), user.ID); err != nil {
		h.error(w, r, err)
		return
	}

	response.NoContent(w)
}

// resetURLBase reconstructs the public reset endpoint from the incoming
// request so emailed links point back at the right host.
func (h *Handlers) resetURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/api/v1/users/reset-password"
}
