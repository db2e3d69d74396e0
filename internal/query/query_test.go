package query_test

import (
	"net/url"
	"testing"

	qs "github.com/google/go-querystring/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandertrails/tours-api/internal/query"
)

func buildPlan(rawQuery string) query.Plan {
	values, _ := url.ParseQuery(rawQuery)
	return query.New(values).Filter().Sort().LimitFields().Paginate().Plan()
}

func TestFilter_ReservedKeysOnly(t *testing.T) {
	plan := buildPlan("page=2&sort=-price&limit=10&fields=name,price")
	assert.Empty(t, plan.Filters, "reserved keys must never become filter terms")
}

func TestFilter_EqualityAndRangeTerms(t *testing.T) {
	plan := buildPlan("difficulty=easy&price[gte]=100&duration[lt]=14")

	require.Len(t, plan.Filters, 3)

	byField := map[string]query.FilterTerm{}
	for _, term := range plan.Filters {
		byField[term.Field] = term
	}

	assert.Equal(t, query.FilterTerm{Field: "difficulty", Op: query.OpEq, Value: "easy"}, byField["difficulty"])
	assert.Equal(t, query.FilterTerm{Field: "price", Op: query.OpGte, Value: "100"}, byField["price"])
	assert.Equal(t, query.FilterTerm{Field: "duration", Op: query.OpLt, Value: "14"}, byField["duration"])
}

func TestFilter_UnsupportedOperatorDropped(t *testing.T) {
	plan := buildPlan("price[ne]=500&duration=7")

	require.Len(t, plan.Filters, 1)
	assert.Equal(t, "duration", plan.Filters[0].Field)
}

func TestFilter_FromEncodedStruct(t *testing.T) {
	// build the query string the way an API client would
	params := struct {
		Difficulty string `url:"difficulty"`
		MaxPrice   int    `url:"price[lte]"`
	}{Difficulty: "medium", MaxPrice: 1500}

	values, err := qs.Values(params)
	require.NoError(t, err)

	plan := query.New(values).Filter().Plan()
	require.Len(t, plan.Filters, 2)
	for _, term := range plan.Filters {
		switch term.Field {
		case "difficulty":
			assert.Equal(t, query.OpEq, term.Op)
		case "price":
			assert.Equal(t, query.OpLte, term.Op)
			assert.Equal(t, "1500", term.Value)
		default:
			t.Fatalf("unexpected filter field %q", term.Field)
		}
	}
}

func TestSort_PrimaryAndTieBreak(t *testing.T) {
	plan := buildPlan("sort=-price,ratingsAverage")

	require.Len(t, plan.Sorts, 2)
	assert.Equal(t, query.SortKey{Field: "price", Desc: true}, plan.Sorts[0])
	assert.Equal(t, query.SortKey{Field: "ratingsAverage", Desc: false}, plan.Sorts[1])
}

func TestSort_DefaultNewestFirst(t *testing.T) {
	plan := buildPlan("")

	require.Len(t, plan.Sorts, 1)
	assert.Equal(t, query.SortKey{Field: "createdAt", Desc: true}, plan.Sorts[0])
}

func TestLimitFields(t *testing.T) {
	plan := buildPlan("fields=name,price,ratingsAverage")
	assert.Equal(t, []string{"name", "price", "ratingsAverage"}, plan.Fields)

	plan = buildPlan("")
	assert.Empty(t, plan.Fields, "no fields param means default projection")
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		rawQuery  string
		wantPage  int
		wantLimit int
		wantSkip  int
	}{
		{"explicit", "page=2&limit=10", 2, 10, 10},
		{"third page", "page=3&limit=10", 3, 10, 20},
		{"defaults", "", 1, 100, 0},
		{"non-numeric page", "page=abc&limit=xyz", 1, 100, 0},
		{"zero page clamps", "page=0&limit=10", 1, 10, 0},
		{"negative values", "page=-3&limit=-5", 1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := buildPlan(tt.rawQuery)
			assert.Equal(t, tt.wantPage, plan.Page)
			assert.Equal(t, tt.wantLimit, plan.Limit)
			assert.Equal(t, tt.wantSkip, plan.Skip())
		})
	}
}

func TestChainOrderIndependent(t *testing.T) {
	values, _ := url.ParseQuery("duration=5&sort=price&page=2&limit=3")

	a := query.New(values).Filter().Sort().LimitFields().Paginate().Plan()
	b := query.New(values).Paginate().LimitFields().Sort().Filter().Plan()

	assert.Equal(t, a, b)
}
