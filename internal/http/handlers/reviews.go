package handlers

import (
	"net/http"

	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/http/middleware"
	"github.com/wandertrails/tours-api/internal/http/response"
)

// ListReviews serves both /reviews and the nested /tours/{tourID}/reviews;
// with a tour in the route the listing is scoped to it.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	var tourID int64
	if id, err := idParam(r, "tourID"); err == nil {
		tourID = id
	}

	plan := planFrom(r)

	reviews, err := h.Reviews.List(r.Context(), tourID, plan)
	if err != nil {
		h.error(w, r, err)
		return
	}

	data := response.Project(reviews, plan.Fields)
	response.SuccessList(w, http.StatusOK, len(reviews), map[string]any{"reviews": data})
}

// CreateReview fills the tour from the route and the author from the session
// when the body leaves them out.
func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		h.error(w, r, errMissingUser)
		return
	}

	var req domain.CreateReviewRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	if req.TourID == 0 {
		if id, err := idParam(r, "tourID"); err == nil {
			req.TourID = id
		}
	}
	req.UserID = user.ID

	review, err := h.Reviews.Create(r.Context(), &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusCreated, map[string]any{"review": review})
}

func (h *Handlers) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	review, err := h.Reviews.Get(r.Context(), id)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"review": review})
}

func (h *Handlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	var req domain.UpdateReviewRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	review, err := h.Reviews.Update(r.Context(), id, &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"review": review})
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	if err := h.Reviews.Delete(r.Context(), id); err != nil {
		h.error(w, r, err)
		return
	}

	response.NoContent(w)
}
