package postgres

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandertrails/tours-api/internal/query"
)

func planFor(t *testing.T, rawQuery string) query.Plan {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	return query.New(values).Filter().Sort().LimitFields().Paginate().Plan()
}

func TestBuildListQuery_FullPlan(t *testing.T) {
	plan := planFor(t, "difficulty=easy&price[gte]=100&sort=-price,ratingsAverage&page=2&limit=10")

	sql, args := buildListQuery(tourCols, "tours", []string{notSecret}, nil, tourColMap, plan)

	assert.Contains(t, sql, "FROM tours")
	assert.Contains(t, sql, "NOT secret")
	assert.Contains(t, sql, "difficulty =")
	assert.Contains(t, sql, "price >=")
	assert.Contains(t, sql, "ORDER BY price DESC, ratings_average ASC")
	assert.Contains(t, sql, "LIMIT $3 OFFSET $4")

	require.Len(t, args, 4)
	assert.Equal(t, 10, args[len(args)-2])
	assert.Equal(t, 10, args[len(args)-1], "page=2&limit=10 must skip 10")
}

func TestBuildListQuery_UnknownFieldsDropped(t *testing.T) {
	plan := planFor(t, "passwordHash=x&sort=passwordHash&limit=5")

	sql, args := buildListQuery(userCols, "users", []string{"active"}, nil, userColMap, plan)

	assert.NotContains(t, sql, "passwordHash")
	assert.Contains(t, sql, "WHERE active")
	assert.Contains(t, sql, "ORDER BY created_at DESC", "unknown sort key falls back to newest first")
	assert.Len(t, args, 2, "only limit and offset remain")
}

func TestBuildListQuery_NoFiltersMatchesEverything(t *testing.T) {
	plan := planFor(t, "page=1&limit=100&sort=name&fields=name")

	sql, _ := buildListQuery(tourCols, "tours", nil, nil, tourColMap, plan)

	assert.NotContains(t, sql, "WHERE", "reserved keys must not produce predicates")
}

func TestBuildListQuery_BaseArgsOffsetPlaceholders(t *testing.T) {
	plan := planFor(t, "rating[gte]=4")

	sql, args := buildListQuery(reviewCols, "reviews r JOIN users u ON u.id = r.user_id",
		[]string{"r.tour_id = $1"}, []any{int64(7)}, reviewColMap, plan)

	assert.Contains(t, sql, "r.tour_id = $1")
	assert.Contains(t, sql, "r.rating >= $2")
	require.Len(t, args, 4)
	assert.Equal(t, int64(7), args[0])
	assert.Equal(t, int64(4), args[1])
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, int64(100), coerce("100"))
	assert.Equal(t, 4.5, coerce("4.5"))
	assert.Equal(t, true, coerce("true"))
	assert.Equal(t, "easy", coerce("easy"))

	got := coerce("2026-06-01")
	_, ok := got.(time.Time)
	assert.True(t, ok, "date strings bind as timestamps")
}
