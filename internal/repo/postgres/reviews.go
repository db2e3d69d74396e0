package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/query"
)

type ReviewRepository interface {
	Create(ctx context.Context, req *domain.CreateReviewRequest) (*domain.Review, error)
	FindByID(ctx context.Context, id int64) (*domain.Review, error)
	List(ctx context.Context, tourID int64, plan query.Plan) ([]domain.Review, error)
	Update(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

type reviewRepository struct {
	db DB
}

func NewReviewRepository(db DB) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewCols = `r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, u.name, u.photo`

var reviewColMap = map[string]string{
	"rating":    "r.rating",
	"createdAt": "r.created_at",
	"tourId":    "r.tour_id",
	"userId":    "r.user_id",
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv     domain.Review
		author domain.ReviewAuthor
	)
	err := row.Scan(
		&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.CreatedAt,
		&author.Name, &author.Photo,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rv.Author = &author
	return &rv, nil
}

func (r *reviewRepository) Create(ctx context.Context, req *domain.CreateReviewRequest) (*domain.Review, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO reviews (review, rating, tour_id, user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, review, rating, tour_id, user_id, created_at
		)
		SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, u.name, u.photo
		FROM inserted r
		JOIN users u ON u.id = r.user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rv, err := scanReview(r.db.QueryRow(ctx, q, req.Review, req.Rating, req.TourID, req.UserID))
	if err != nil {
		return nil, mapPgError(err)
	}
	return rv, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.db.QueryRow(ctx, q, id))
}

// List returns reviews with their author populated; tourID 0 lists across
// all tours.
func (r *reviewRepository) List(ctx context.Context, tourID int64, plan query.Plan) ([]domain.Review, error) {
	var (
		baseConds []string
		baseArgs  []any
	)
	if tourID > 0 {
		baseConds = []string{"r.tour_id = $1"}
		baseArgs = []any{tourID}
	}

	q, args := buildListQuery(reviewCols, "reviews r JOIN users u ON u.id = r.user_id", baseConds, baseArgs, reviewColMap, plan)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) Update(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	const q = `
		WITH updated AS (
			UPDATE reviews
			SET
				review = COALESCE($2, review),
				rating = COALESCE($3, rating)
			WHERE id = $1
			RETURNING id, review, rating, tour_id, user_id, created_at
		)
		SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, u.name, u.photo
		FROM updated r
		JOIN users u ON u.id = r.user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.db.QueryRow(ctx, q, id, req.Review, req.Rating))
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM reviews WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
