// Package query turns a raw request query string into a typed, bounded read
// plan: filter terms, sort keys, a projection and pagination. The builder is
// permissive: malformed numbers fall back to defaults and unknown operator
// suffixes are dropped, it never returns an error.
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpGt  Op = "gt"
	OpLte Op = "lte"
	OpLt  Op = "lt"
)

// FilterTerm is a single comparison; terms combine with logical AND.
type FilterTerm struct {
	Field string
	Op    Op
	Value string
}

type SortKey struct {
	Field string
	Desc  bool
}

// Plan is the consumable result of the builder. Fields empty means "project
// everything except internal bookkeeping columns".
type Plan struct {
	Filters []FilterTerm
	Sorts   []SortKey
	Fields  []string
	Page    int
	Limit   int
}

func (p Plan) Skip() int {
	return (p.Page - 1) * p.Limit
}

const (
	DefaultLimit     = 100
	DefaultSortField = "createdAt"
)

// reserved keys never participate in filtering
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

var rangeKey = regexp.MustCompile(`^([A-Za-z0-9_]+)\[(gte|gt|lte|lt)\]$`)

// Features builds a Plan from raw query parameters. Methods chain in any
// order; the canonical pipeline is Filter -> Sort -> LimitFields -> Paginate.
type Features struct {
	values url.Values
	plan   Plan
}

func New(values url.Values) *Features {
	return &Features{
		values: values,
		plan: Plan{
			Page:  1,
			Limit: DefaultLimit,
		},
	}
}

// Filter translates every non-reserved parameter into a comparison term.
// A key of the form field[op] with op in {gte,gt,lte,lt} becomes a range
// term; a plain key becomes an equality term.
func (f *Features) Filter() *Features {
	for key, vals := range f.values {
		if reserved[key] {
			continue
		}

		field, op := key, OpEq
		if m := rangeKey.FindStringSubmatch(key); m != nil {
			field, op = m[1], Op(m[2])
		} else if strings.ContainsAny(key, "[]") {
			// bracketed key with an unsupported operator
			continue
		}

		for _, v := range vals {
			f.plan.Filters = append(f.plan.Filters, FilterTerm{Field: field, Op: op, Value: v})
		}
	}
	return f
}

// Sort parses the comma-separated sort parameter; a leading '-' means
// descending. Absent, results come back newest first.
func (f *Features) Sort() *Features {
	raw := f.values.Get("sort")
	if raw == "" {
		f.plan.Sorts = []SortKey{{Field: DefaultSortField, Desc: true}}
		return f
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			f.plan.Sorts = append(f.plan.Sorts, SortKey{Field: part[1:], Desc: true})
		} else {
			f.plan.Sorts = append(f.plan.Sorts, SortKey{Field: part})
		}
	}
	return f
}

// LimitFields parses the comma-separated projection include-list.
func (f *Features) LimitFields() *Features {
	raw := f.values.Get("fields")
	if raw == "" {
		return f
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f.plan.Fields = append(f.plan.Fields, part)
	}
	return f
}

// Paginate computes page and limit with permissive fallbacks: a malformed or
// non-positive page reads as 1, a malformed or non-positive limit as the
// default 100. No upper bound is enforced here.
func (f *Features) Paginate() *Features {
	f.plan.Page = positiveInt(f.values.Get("page"), 1)
	f.plan.Limit = positiveInt(f.values.Get("limit"), DefaultLimit)
	return f
}

func (f *Features) Plan() Plan {
	return f.plan
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
