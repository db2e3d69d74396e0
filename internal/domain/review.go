package domain

import (
	"strings"
	"time"

	"github.com/wandertrails/tours-api/internal/validate"
)

type Review struct {
	ID        int64         `json:"id"`
	Review    string        `json:"review"`
	Rating    float64       `json:"rating"`
	TourID    int64         `json:"tourId"`
	UserID    int64         `json:"userId"`
	Author    *ReviewAuthor `json:"author,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ReviewAuthor is the populated user reference shown alongside a review.
type ReviewAuthor struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

type CreateReviewRequest struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating"`
	// TourID and UserID default from the route and the authenticated user.
	TourID int64 `json:"tourId,omitempty"`
	UserID int64 `json:"-"`
}

func (r *CreateReviewRequest) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

func (r *CreateReviewRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "review", Ok: validate.NotBlank(r.Review), Message: "a review cannot be empty"},
		validate.Rule{Field: "rating", Ok: validate.Between(r.Rating, 1, 5), Message: "rating must be between 1 and 5"},
		validate.Rule{Field: "tourId", Ok: r.TourID > 0, Message: "a review must belong to a tour"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

type UpdateReviewRequest struct {
	Review *string  `json:"review,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
}

func (r *UpdateReviewRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "review", Ok: r.Review == nil || validate.NotBlank(*r.Review), Message: "a review cannot be empty"},
		validate.Rule{Field: "rating", Ok: r.Rating == nil || validate.Between(*r.Rating, 1, 5), Message: "rating must be between 1 and 5"},
	)
	if errs != nil {
		return errs
	}
	return nil
}
