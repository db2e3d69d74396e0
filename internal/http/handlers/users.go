package handlers

import (
	"net/http"

	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/http/response"
)

// Admin-side user management. Self-service endpoints live in auth.go.

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	plan := planFrom(r)

	users, err := h.Users.List(r.Context(), plan)
	if err != nil {
		h.error(w, r, err)
		return
	}

	infos := make([]*domain.UserInfo, len(users))
	for i := range users {
		infos[i] = users[i].ToUserInfo()
	}

	data := response.Project(infos, plan.Fields)
	response.SuccessList(w, http.StatusOK, len(users), map[string]any{"users": data})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	user, err := h.Users.Create(r.Context(), &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusCreated, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	var req domain.AdminUpdateUserRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	user, err := h.Users.Update(r.Context(), id, &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	if err := h.Users.Delete(r.Context(), id); err != nil {
		h.error(w, r, err)
		return
	}

	response.NoContent(w)
}
