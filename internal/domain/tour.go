package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/wandertrails/tours-api/internal/validate"
)

// Tour difficulties
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

type Tour struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty"`
	Secret          bool        `json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"-"`
}

type CreateTourRequest struct {
	Name          string      `json:"name"`
	Duration      int         `json:"duration"`
	MaxGroupSize  int         `json:"maxGroupSize"`
	Difficulty    string      `json:"difficulty"`
	Price         float64     `json:"price"`
	PriceDiscount *float64    `json:"priceDiscount,omitempty"`
	Summary       string      `json:"summary"`
	Description   string      `json:"description,omitempty"`
	ImageCover    string      `json:"imageCover"`
	Images        []string    `json:"images,omitempty"`
	StartDates    []time.Time `json:"startDates,omitempty"`
	Secret        bool        `json:"secret,omitempty"`
}

func (r *CreateTourRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Summary = strings.TrimSpace(r.Summary)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateTourRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "name", Ok: validate.NotBlank(r.Name), Message: "a tour must have a name"},
		validate.Rule{Field: "name", Ok: r.Name == "" || validate.LenBetween(r.Name, 10, 40), Message: "tour name must be between 10 and 40 characters"},
		validate.Rule{Field: "duration", Ok: r.Duration > 0, Message: "a tour must have a duration"},
		validate.Rule{Field: "maxGroupSize", Ok: r.MaxGroupSize > 0, Message: "a tour must have a group size"},
		validate.Rule{Field: "difficulty", Ok: validate.OneOf(r.Difficulty, DifficultyEasy, DifficultyMedium, DifficultyDifficult), Message: "difficulty must be easy, medium or difficult"},
		validate.Rule{Field: "price", Ok: r.Price > 0, Message: "a tour must have a price"},
		validate.Rule{Field: "priceDiscount", Ok: r.PriceDiscount == nil || *r.PriceDiscount < r.Price, Message: "discount price must be below the regular price"},
		validate.Rule{Field: "summary", Ok: validate.NotBlank(r.Summary), Message: "a tour must have a summary"},
		validate.Rule{Field: "imageCover", Ok: validate.NotBlank(r.ImageCover), Message: "a tour must have a cover image"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

type UpdateTourRequest struct {
	Name          *string      `json:"name,omitempty"`
	Duration      *int         `json:"duration,omitempty"`
	MaxGroupSize  *int         `json:"maxGroupSize,omitempty"`
	Difficulty    *string      `json:"difficulty,omitempty"`
	Price         *float64     `json:"price,omitempty"`
	PriceDiscount *float64     `json:"priceDiscount,omitempty"`
	Summary       *string      `json:"summary,omitempty"`
	Description   *string      `json:"description,omitempty"`
	ImageCover    *string      `json:"imageCover,omitempty"`
	Images        *[]string    `json:"images,omitempty"`
	StartDates    *[]time.Time `json:"startDates,omitempty"`
	Secret        *bool        `json:"secret,omitempty"`
}

func (r *UpdateTourRequest) Validate() error {
	errs := validate.Apply(
		validate.Rule{Field: "name", Ok: r.Name == nil || validate.LenBetween(*r.Name, 10, 40), Message: "tour name must be between 10 and 40 characters"},
		validate.Rule{Field: "duration", Ok: r.Duration == nil || *r.Duration > 0, Message: "duration must be positive"},
		validate.Rule{Field: "maxGroupSize", Ok: r.MaxGroupSize == nil || *r.MaxGroupSize > 0, Message: "group size must be positive"},
		validate.Rule{Field: "difficulty", Ok: r.Difficulty == nil || validate.OneOf(*r.Difficulty, DifficultyEasy, DifficultyMedium, DifficultyDifficult), Message: "difficulty must be easy, medium or difficult"},
		validate.Rule{Field: "price", Ok: r.Price == nil || *r.Price > 0, Message: "price must be positive"},
		validate.Rule{Field: "priceDiscount", Ok: r.PriceDiscount == nil || r.Price == nil || *r.PriceDiscount < *r.Price, Message: "discount price must be below the regular price"},
	)
	if errs != nil {
		return errs
	}
	return nil
}

// TourStats is one aggregation bucket of the stats report, grouped by
// difficulty over well-rated tours.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlanEntry is one month's bucket of the busiest-month report.
type MonthlyPlanEntry struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL slug from a tour name.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
