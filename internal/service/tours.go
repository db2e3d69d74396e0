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

type TourService interface {
	Create(ctx context.Context, req *domain.CreateTourRequest) (*domain.Tour, error)
	Get(ctx context.Context, id int64) (*domain.Tour, error)
	List(ctx context.Context, plan query.Plan) ([]domain.Tour, error)
	Update(ctx context.Context, id int64, req *domain.UpdateTourRequest) (*domain.Tour, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]domain.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
}

type tourService struct {
	tours postgres.TourRepository
	bus   events.Publisher
}

func NewTourService(tours postgres.TourRepository, bus events.Publisher) TourService {
	return &tourService{tours: tours, bus: bus}
}

func (s *tourService) Create(ctx context.Context, req *domain.CreateTourRequest) (*domain.Tour, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	tour, err := s.tours.Create(ctx, req, domain.Slugify(req.Name))
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperror.BadRequest("a tour with this name already exists")
		}
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}

	if err := s.bus.Publish(ctx, events.TourCreated, events.TourCreatedEvent{
		TourID:    tour.ID,
		Name:      tour.Name,
		CreatedAt: tour.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish tour created event", "error", err, "tour_id", tour.ID)
	}

	return tour, nil
}

func (s *tourService) Get(ctx context.Context, id int64) (*domain.Tour, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	if tour == nil {
		return nil, apperror.NotFound("no tour found with that id")
	}
	return tour, nil
}

func (s *tourService) List(ctx context.Context, plan query.Plan) ([]domain.Tour, error) {
	tours, err := s.tours.List(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	return tours, nil
}

func (s *tourService) Update(ctx context.Context, id int64, req *domain.UpdateTourRequest) (*domain.Tour, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	// the slug follows the name
	var slug *string
	if req.Name != nil {
		v := domain.Slugify(*req.Name)
		slug = &v
	}

	tour, err := s.tours.Update(ctx, id, req, slug)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperror.BadRequest("a tour with this name already exists")
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	if tour == nil {
		return nil, apperror.NotFound("no tour found with that id")
	}

	return tour, nil
}

func (s *tourService) Delete(ctx context.Context, id int64) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no tour found with that id")
		}
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	return nil
}

func (s *tourService) Stats(ctx context.Context) ([]domain.TourStats, error) {
	stats, err := s.tours.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", err)
	}
	return stats, nil
}

func (s *tourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	if year < 1900 || year > 2200 {
		return nil, apperror.BadRequest("invalid year")
	}

	plan, err := s.tours.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly plan: %w", err)
	}
	return plan, nil
}
