package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/query"
)

type TourRepository interface {
	Create(ctx context.Context, req *domain.CreateTourRequest, slug string) (*domain.Tour, error)
	FindByID(ctx context.Context, id int64) (*domain.Tour, error)
	List(ctx context.Context, plan query.Plan) ([]domain.Tour, error)
	Update(ctx context.Context, id int64, req *domain.UpdateTourRequest, slug *string) (*domain.Tour, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]domain.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
}

type tourRepository struct {
	db DB
}

func NewTourRepository(db DB) TourRepository {
	return &tourRepository{db: db}
}

const tourCols = `id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity, price, price_discount, summary, description, image_cover, images, start_dates, secret, created_at, updated_at`

var tourColMap = map[string]string{
	"name":            "name",
	"slug":            "slug",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"createdAt":       "created_at",
}

// secret tours never come back from reads or reports
const notSecret = "NOT secret"

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
		&t.Summary, &t.Description, &t.ImageCover, &t.Images, &t.StartDates,
		&t.Secret, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tourRepository) Create(ctx context.Context, req *domain.CreateTourRequest, slug string) (*domain.Tour, error) {
	const q = `
		INSERT INTO tours (name, slug, duration, max_group_size, difficulty, price, price_discount, summary, description, image_cover, images, start_dates, secret)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTour(r.db.QueryRow(ctx, q,
		req.Name, slug, req.Duration, req.MaxGroupSize, req.Difficulty,
		req.Price, req.PriceDiscount, req.Summary, req.Description,
		req.ImageCover, req.Images, req.StartDates, req.Secret,
	))
	if err != nil {
		return nil, mapPgError(err)
	}
	return t, nil
}

func (r *tourRepository) FindByID(ctx context.Context, id int64) (*domain.Tour, error) {
	const q = `SELECT ` + tourCols + ` FROM tours WHERE id = $1 AND ` + notSecret
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanTour(r.db.QueryRow(ctx, q, id))
}

func (r *tourRepository) List(ctx context.Context, plan query.Plan) ([]domain.Tour, error) {
	q, args := buildListQuery(tourCols, "tours", []string{notSecret}, nil, tourColMap, plan)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []domain.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

func (r *tourRepository) Update(ctx context.Context, id int64, req *domain.UpdateTourRequest, slug *string) (*domain.Tour, error) {
	const q = `
		UPDATE tours
		SET
			name = COALESCE($2, name),
			slug = COALESCE($3, slug),
			duration = COALESCE($4, duration),
			max_group_size = COALESCE($5, max_group_size),
			difficulty = COALESCE($6, difficulty),
			price = COALESCE($7, price),
			price_discount = COALESCE($8, price_discount),
			summary = COALESCE($9, summary),
			description = COALESCE($10, description),
			image_cover = COALESCE($11, image_cover),
			images = COALESCE($12, images),
			start_dates = COALESCE($13, start_dates),
			secret = COALESCE($14, secret),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTour(r.db.QueryRow(ctx, q,
		id, req.Name, slug, req.Duration, req.MaxGroupSize, req.Difficulty,
		req.Price, req.PriceDiscount, req.Summary, req.Description,
		req.ImageCover, req.Images, req.StartDates, req.Secret,
	))
	if err != nil {
		return nil, mapPgError(err)
	}
	return t, nil
}

func (r *tourRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM tours WHERE id = $1`
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

// Stats groups well-rated tours by difficulty, ordered by average price.
func (r *tourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	const q = `
		SELECT
			difficulty,
			COUNT(*) AS num_tours,
			COALESCE(SUM(ratings_quantity), 0) AS num_ratings,
			COALESCE(AVG(ratings_average), 0) AS avg_rating,
			COALESCE(AVG(price), 0) AS avg_price,
			COALESCE(MIN(price), 0) AS min_price,
			COALESCE(MAX(price), 0) AS max_price
		FROM tours
		WHERE ratings_average >= 4.5 AND ` + notSecret + `
		GROUP BY difficulty
		ORDER BY avg_price ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.TourStats
	for rows.Next() {
		var s domain.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MonthlyPlan unnests start dates in the given year and buckets tour starts
// per month, busiest first.
func (r *tourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	const q = `
		SELECT
			EXTRACT(MONTH FROM start_date)::int AS month,
			COUNT(*) AS num_tour_starts,
			ARRAY_AGG(name ORDER BY name) AS tours
		FROM tours, UNNEST(start_dates) AS start_date
		WHERE start_date >= $1 AND start_date <= $2 AND ` + notSecret + `
		GROUP BY month
		ORDER BY num_tour_starts DESC
		LIMIT 12`

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plan []domain.MonthlyPlanEntry
	for rows.Next() {
		var e domain.MonthlyPlanEntry
		if err := rows.Scan(&e.Month, &e.NumTourStarts, &e.Tours); err != nil {
			return nil, err
		}
		plan = append(plan, e)
	}
	return plan, rows.Err()
}
