// Package filtering narrows a row set by free-text search and conjunctive
// per-column predicates.
package filtering

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/gridcore/internal/grid"
)

type Operator string

const (
	Equals     Operator = "equals"
	Contains   Operator = "contains"
	StartsWith Operator = "startsWith"
	EndsWith   Operator = "endsWith"
	Greater    Operator = "gt"
	Less       Operator = "lt"
	GreaterEq  Operator = "gte"
	LessEq     Operator = "lte"
	Similar    Operator = "similar"
)

// SimilarThreshold is the minimum normalized edit-distance similarity for
// the similar operator.
const SimilarThreshold = 0.6

var operators = []Operator{Equals, Contains, StartsWith, EndsWith, Greater, Less, GreaterEq, LessEq, Similar}

// ParseOperator accepts the operator names case-insensitively.
func ParseOperator(s string) (Operator, bool) {
	s = strings.TrimSpace(s)
	for _, op := range operators {
		if strings.EqualFold(s, string(op)) {
			return op, true
		}
	}
	return "", false
}

// Filter is a single column predicate.
type Filter struct {
	ColumnID string   `json:"columnId"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Apply returns the rows passing the search text and every filter, in input
// order. With no search text and no filters the input is returned unchanged.
// Filters on unknown or non-filterable columns are ignored.
func Apply(rows []grid.Row, cols grid.ColumnLookup, search string, filters []Filter) []grid.Row {
	search = strings.ToLower(strings.TrimSpace(search))
	active := resolve(cols, filters)
	if search == "" && len(active) == 0 {
		return rows
	}
	all := cols.Columns()
	out := make([]grid.Row, 0, len(rows))
	for _, r := range rows {
		if search != "" && !matchesSearch(r, all, search) {
			continue
		}
		if !matchesAll(r, active) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type resolvedFilter struct {
	col grid.Column
	f   Filter
}

func resolve(cols grid.ColumnLookup, filters []Filter) []resolvedFilter {
	var out []resolvedFilter
	for _, f := range filters {
		c, ok := cols.Column(f.ColumnID)
		if !ok || !c.Filterable {
			continue
		}
		if _, ok := ParseOperator(string(f.Operator)); !ok {
			continue
		}
		out = append(out, resolvedFilter{col: c, f: f})
	}
	return out
}

// matchesSearch expects query already lower-cased.
func matchesSearch(r grid.Row, cols []grid.Column, query string) bool {
	for _, c := range cols {
		if strings.Contains(strings.ToLower(grid.Stringify(c.Value(r))), query) {
			return true
		}
	}
	return false
}

func matchesAll(r grid.Row, filters []resolvedFilter) bool {
	for _, rf := range filters {
		if !Match(rf.col.Value(r), rf.f.Operator, rf.f.Value, rf.col.Type.Numeric()) {
			return false
		}
	}
	return true
}

// Match evaluates one operator against a cell value. numericColumn allows
// numeric strings on either side to compare as numbers.
func Match(cell any, op Operator, want any, numericColumn bool) bool {
	op, _ = ParseOperator(string(op))
	if cell == nil {
		return op == Equals && grid.Stringify(want) == ""
	}
	number := grid.Number
	if numericColumn {
		number = grid.ParseNumber
	}
	x, xNum := number(cell)
	y, yNum := grid.ParseNumber(want)
	numeric := xNum && yNum

	cs := strings.ToLower(grid.Stringify(cell))
	ws := strings.ToLower(grid.Stringify(want))

	switch op {
	case Equals:
		if numeric {
			return x == y
		}
		return cs == ws
	case Contains:
		return strings.Contains(cs, ws)
	case StartsWith:
		return strings.HasPrefix(cs, ws)
	case EndsWith:
		return strings.HasSuffix(cs, ws)
	case Greater, Less, GreaterEq, LessEq:
		c := strings.Compare(grid.Stringify(cell), grid.Stringify(want))
		if numeric {
			switch {
			case x < y:
				c = -1
			case x > y:
				c = 1
			default:
				c = 0
			}
		}
		switch op {
		case Greater:
			return c > 0
		case Less:
			return c < 0
		case GreaterEq:
			return c >= 0
		default:
			return c <= 0
		}
	case Similar:
		return Similarity(cs, ws) >= SimilarThreshold
	}
	return false
}

// Similarity is 1 minus the Levenshtein distance divided by the longer length.
func Similarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
