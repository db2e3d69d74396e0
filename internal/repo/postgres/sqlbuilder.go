package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wandertrails/tours-api/internal/query"
)

// sql operator per filter op
var sqlOps = map[query.Op]string{
	query.OpEq:  "=",
	query.OpGte: ">=",
	query.OpGt:  ">",
	query.OpLte: "<=",
	query.OpLt:  "<",
}

// buildListQuery renders a read plan into a SELECT against one table. Field
// names pass through the per-entity column map; terms naming unknown fields
// are dropped, so no request-controlled text ever reaches the SQL string.
// baseConds are fixed predicates (soft-delete and secret-tour exclusion) and
// may use $1..$n placeholders for the supplied baseArgs.
func buildListQuery(selectCols, table string, baseConds []string, baseArgs []any, colMap map[string]string, plan query.Plan) (string, []any) {
	var b strings.Builder
	args := append([]any{}, baseArgs...)

	b.WriteString("SELECT ")
	b.WriteString(selectCols)
	b.WriteString(" FROM ")
	b.WriteString(table)

	conds := append([]string{}, baseConds...)
	for _, term := range plan.Filters {
		col, ok := colMap[term.Field]
		if !ok {
			continue
		}
		args = append(args, coerce(term.Value))
		conds = append(conds, fmt.Sprintf("%s %s $%d", col, sqlOps[term.Op], len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	var orders []string
	for _, key := range plan.Sorts {
		col, ok := colMap[key.Field]
		if !ok {
			continue
		}
		if key.Desc {
			orders = append(orders, col+" DESC")
		} else {
			orders = append(orders, col+" ASC")
		}
	}
	if len(orders) == 0 {
		fallback := "created_at"
		if col, ok := colMap["createdAt"]; ok {
			fallback = col
		}
		orders = []string{fallback + " DESC"}
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(orders, ", "))

	args = append(args, plan.Limit)
	b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, plan.Skip())
	b.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return b.String(), args
}

// coerce gives a raw filter operand a concrete Go type so the driver binds a
// sensible parameter type for numeric, boolean and date columns.
func coerce(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return raw
}
