// Package sorting orders rows by a prioritized list of column keys.
package sorting

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jask/gridcore/internal/grid"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Key is one entry of a sort spec.
type Key struct {
	ColumnID  string    `json:"columnId"`
	Direction Direction `json:"direction"`
}

// Spec is ordered by priority: Spec[0] is the primary key.
type Spec []Key

// Normalize drops empty ids and repeated columns (first entry wins) and
// treats any unknown direction as ascending.
func (s Spec) Normalize() Spec {
	if len(s) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(s))
	out := make(Spec, 0, len(s))
	for _, k := range s {
		if k.ColumnID == "" || seen[k.ColumnID] {
			continue
		}
		seen[k.ColumnID] = true
		if k.Direction != Desc {
			k.Direction = Asc
		}
		out = append(out, k)
	}
	return out
}

// Index returns the position of the column in the spec or -1.
func (s Spec) Index(columnID string) int {
	return slices.IndexFunc(s, func(k Key) bool { return k.ColumnID == columnID })
}

// Clone returns an independent copy.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// String renders the spec as "name asc, age desc".
func (s Spec) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.ColumnID + " " + string(k.Direction)
	}
	return strings.Join(parts, ", ")
}

type resolvedKey struct {
	col  grid.Column
	desc bool
}

// Apply returns a new slice ordered by spec. The sort is stable: rows that
// compare equal on every key keep their input order. Keys naming unknown
// columns are skipped.
func Apply(rows []grid.Row, cols grid.ColumnLookup, spec Spec) []grid.Row {
	out := slices.Clone(rows)
	keys := make([]resolvedKey, 0, len(spec))
	for _, k := range spec.Normalize() {
		c, ok := cols.Column(k.ColumnID)
		if !ok {
			continue
		}
		keys = append(keys, resolvedKey{col: c, desc: k.Direction == Desc})
	}
	if len(keys) == 0 || len(out) < 2 {
		return out
	}
	slices.SortStableFunc(out, func(a, b grid.Row) int {
		for _, k := range keys {
			c := compareTyped(k.col.Value(a), k.col.Value(b), k.col.Type.Numeric())
			if c == 0 {
				continue
			}
			if k.desc {
				return -c
			}
			return c
		}
		return 0
	})
	return out
}

// Compare orders two cell values: nil first, numbers numerically, anything
// else by case-sensitive comparison of the stringified values.
func Compare(a, b any) int {
	return compareTyped(a, b, false)
}

func compareTyped(a, b any, numericColumn bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	number := grid.Number
	if numericColumn {
		number = grid.ParseNumber
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
	}
	return strings.Compare(grid.Stringify(a), grid.Stringify(b))
}
