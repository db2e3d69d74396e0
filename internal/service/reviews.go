package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/events"
	"github.com/wandertrails/tours-api/internal/query"
	"github.com/wandertrails/tours-api/internal/repo/postgres"
	"github.com/wandertrails/tours-api/pkg/logger"
)

type ReviewService interface {
	Create(ctx context.Context, req *domain.CreateReviewRequest) (*domain.Review, error)
	Get(ctx context.Context, id int64) (*domain.Review, error)
	List(ctx context.Context, tourID int64, plan query.Plan) ([]domain.Review, error)
	Update(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

type reviewService struct {
	reviews postgres.ReviewRepository
	tours   postgres.TourRepository
	bus     events.Publisher
}

func NewReviewService(reviews postgres.ReviewRepository, tours postgres.TourRepository, bus events.Publisher) ReviewService {
	return &reviewService{reviews: reviews, tours: tours, bus: bus}
}

func (s *reviewService) Create(ctx context.Context, req *domain.CreateReviewRequest) (*domain.Review, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	// the tour must exist and be visible
	tour, err := s.tours.FindByID(ctx, req.TourID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tour: %w", err)
	}
	if tour == nil {
		return nil, apperror.NotFound("no tour found with that id")
	}

	review, err := s.reviews.Create(ctx, req)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperror.BadRequest("you have already reviewed this tour")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.bus.Publish(ctx, events.ReviewCreated, events.ReviewCreatedEvent{
		ReviewID:  review.ID,
		TourID:    review.TourID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish review created event", "error", err, "review_id", review.ID)
	}

	return review, nil
}

func (s *reviewService) Get(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, apperror.NotFound("no review found with that id")
	}
	return review, nil
}

func (s *reviewService) List(ctx context.Context, tourID int64, plan query.Plan) ([]domain.Review, error) {
	reviews, err := s.reviews.List(ctx, tourID, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) Update(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	review, err := s.reviews.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if review == nil {
		return nil, apperror.NotFound("no review found with that id")
	}

	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, id int64) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no review found with that id")
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}
