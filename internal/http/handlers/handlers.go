// Package handlers binds the HTTP surface to the service layer. Each entity
// gets its own file; shared decoding, parameter and cookie helpers live here.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/config"
	"github.com/wandertrails/tours-api/internal/http/response"
	"github.com/wandertrails/tours-api/internal/query"
	"github.com/wandertrails/tours-api/internal/service"
)

type Handlers struct {
	Auth    service.AuthService
	Tours   service.TourService
	Users   service.UserService
	Reviews service.ReviewService
	cfg     *config.Config
}

func New(auth service.AuthService, tours service.TourService, users service.UserService, reviews service.ReviewService, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:    auth,
		Tours:   tours,
		Users:   users,
		Reviews: reviews,
		cfg:     cfg,
	}
}

func (h *Handlers) error(w http.ResponseWriter, r *http.Request, err error) {
	response.HandleError(w, r, err, h.cfg.IsProduction())
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.BadRequest("invalid id")
	}
	return id, nil
}

// planFrom runs the full query pipeline over the raw URL parameters.
func planFrom(r *http.Request) query.Plan {
	return query.New(r.URL.Query()).
		Filter().
		Sort().
		LimitFields().
		Paginate().
		Plan()
}

// setSessionCookie mirrors the issued token into an HttpOnly cookie so
// browser clients never touch it from script.
func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.Auth.CookieTTL),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

var errMissingUser = errors.New("protected route reached without a user in context")
