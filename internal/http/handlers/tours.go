package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/http/response"
	"github.com/wandertrails/tours-api/internal/query"
)

func (h *Handlers) ListTours(w http.ResponseWriter, r *http.Request) {
	plan := planFrom(r)

	tours, err := h.Tours.List(r.Context(), plan)
	if err != nil {
		h.error(w, r, err)
		return
	}

	data := response.Project(tours, plan.Fields)
	response.SuccessList(w, http.StatusOK, len(tours), map[string]any{"tours": data})
}

// TopTours is the curated alias: the five best rated tours, cheapest first,
// trimmed to the headline fields. Caller parameters are overridden.
func (h *Handlers) TopTours(w http.ResponseWriter, r *http.Request) {
	values := url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
	}
	plan := query.New(values).
		Filter().
		Sort().
		LimitFields().
		Paginate().
		Plan()

	tours, err := h.Tours.List(r.Context(), plan)
	if err != nil {
		h.error(w, r, err)
		return
	}

	data := response.Project(tours, plan.Fields)
	response.SuccessList(w, http.StatusOK, len(tours), map[string]any{"tours": data})
}

func (h *Handlers) GetTour(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	tour, err := h.Tours.Get(r.Context(), id)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"tour": tour})
}

func (h *Handlers) CreateTour(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTourRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	tour, err := h.Tours.Create(r.Context(), &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusCreated, map[string]any{"tour": tour})
}

func (h *Handlers) UpdateTour(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	var req domain.UpdateTourRequest
	if err := decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	tour, err := h.Tours.Update(r.Context(), id, &req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"tour": tour})
}

func (h *Handlers) DeleteTour(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.error(w, r, err)
		return
	}

	if err := h.Tours.Delete(r.Context(), id); err != nil {
		h.error(w, r, err)
		return
	}

	response.NoContent(w)
}

func (h *Handlers) TourStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Tours.Stats(r.Context())
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handlers) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.error(w, r, apperror.BadRequest("invalid year"))
		return
	}

	plan, err := h.Tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.error(w, r, err)
		return
	}

	response.SuccessList(w, http.StatusOK, len(plan), map[string]any{"plan": plan})
}
