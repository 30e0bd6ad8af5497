package controller

import (
	"reflect"
	"slices"

	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/sorting"
)

// ToggleSort cycles a column through unsorted, ascending (as the new primary
// key), descending (same position) and back to unsorted. Unknown or
// non-sortable columns are ignored.
func (c *Controller) ToggleSort(columnID string) {
	c.update(func() Event {
		col, ok := c.model.Column(columnID)
		if !ok || !col.Sortable {
			return nil
		}
		spec := c.sort.Clone()
		var dir sorting.Direction
		switch i := spec.Index(columnID); {
		case i < 0:
			dir = sorting.Asc
			spec = append(sorting.Spec{{ColumnID: columnID, Direction: dir}}, spec...)
		case spec[i].Direction == sorting.Asc:
			dir = sorting.Desc
			spec[i].Direction = dir
		default:
			spec = slices.Delete(spec, i, i+1)
		}
		if len(spec) == 0 {
			spec = nil
		}
		c.sort = spec
		c.queryChangedLocked()
		return SortEvent{ColumnID: columnID, Direction: dir, Spec: c.sort.Clone()}
	})
}

// SetSort replaces the whole spec. Keys on unknown or non-sortable columns
// are dropped.
func (c *Controller) SetSort(spec sorting.Spec) {
	c.update(func() Event {
		spec = slices.DeleteFunc(spec.Normalize(), func(k sorting.Key) bool {
			col, ok := c.model.Column(k.ColumnID)
			return !ok || !col.Sortable
		})
		if len(spec) == 0 {
			spec = nil
		}
		if slices.Equal(spec, c.sort) {
			return nil
		}
		c.sort = spec
		c.queryChangedLocked()
		ev := SortEvent{Spec: c.sort.Clone()}
		if len(spec) > 0 {
			ev.ColumnID, ev.Direction = spec[0].ColumnID, spec[0].Direction
		}
		return ev
	})
}

// SetSearch records new search text. The row list is recomputed once input
// has been quiet for the search debounce.
func (c *Controller) SetSearch(text string) {
	c.update(func() Event {
		c.pendingSearch = text
		if c.opts.SearchDebounce <= 0 {
			return c.applySearchLocked()
		}
		c.searchTimer.Trigger(c.fireSearch)
		return nil
	})
}

// FlushSearch applies pending search text without waiting for the debounce.
func (c *Controller) FlushSearch() {
	c.update(func() Event {
		c.searchTimer.Cancel()
		return c.applySearchLocked()
	})
}

func (c *Controller) fireSearch() {
	c.update(c.applySearchLocked)
}

func (c *Controller) applySearchLocked() Event {
	if c.pendingSearch == c.search {
		return nil
	}
	c.search = c.pendingSearch
	c.log.Debug("search applied", "search", c.search)
	c.queryChangedLocked()
	return c.filterEventLocked()
}

// SetFilter adds a filter to the conjunctive list. A filter with the same
// column and operator is replaced, so "age gt 20" and "age lt 40" can hold
// together. Filters on unknown or non-filterable columns, or with an unknown
// operator, are ignored.
func (c *Controller) SetFilter(f filtering.Filter) {
	c.update(func() Event {
		f, ok := c.checkFilterLocked(f)
		if !ok {
			return nil
		}
		filters := slices.Clone(c.filters)
		if i := slices.IndexFunc(filters, func(o filtering.Filter) bool {
			return o.ColumnID == f.ColumnID && o.Operator == f.Operator
		}); i >= 0 {
			if reflect.DeepEqual(filters[i], f) {
				return nil
			}
			filters[i] = f
		} else {
			filters = append(filters, f)
		}
		c.filters = filters
		c.queryChangedLocked()
		return c.filterEventLocked()
	})
}

// SetColumnFilters replaces every filter on columnID with filters in one
// step. Entries for other columns or with unknown operators are dropped; an
// empty list clears the column.
func (c *Controller) SetColumnFilters(columnID string, filters []filtering.Filter) {
	c.update(func() Event {
		next := slices.DeleteFunc(slices.Clone(c.filters), func(f filtering.Filter) bool { return f.ColumnID == columnID })
		for _, f := range filters {
			if f.ColumnID != columnID {
				continue
			}
			f, ok := c.checkFilterLocked(f)
			if !ok {
				continue
			}
			next = slices.DeleteFunc(next, func(o filtering.Filter) bool {
				return o.ColumnID == f.ColumnID && o.Operator == f.Operator
			})
			next = append(next, f)
		}
		if len(next) == 0 {
			next = nil
		}
		if reflect.DeepEqual(next, c.filters) {
			return nil
		}
		c.filters = next
		c.queryChangedLocked()
		return c.filterEventLocked()
	})
}

// RemoveFilter drops the filters on columnID. With operators given only
// those are dropped.
func (c *Controller) RemoveFilter(columnID string, ops ...filtering.Operator) {
	c.update(func() Event {
		next := slices.DeleteFunc(slices.Clone(c.filters), func(f filtering.Filter) bool {
			return f.ColumnID == columnID && (len(ops) == 0 || slices.Contains(ops, f.Operator))
		})
		if len(next) == len(c.filters) {
			return nil
		}
		if len(next) == 0 {
			next = nil
		}
		c.filters = next
		c.queryChangedLocked()
		return c.filterEventLocked()
	})
}

func (c *Controller) checkFilterLocked(f filtering.Filter) (filtering.Filter, bool) {
	col, ok := c.model.Column(f.ColumnID)
	if !ok || !col.Filterable {
		return f, false
	}
	op, ok := filtering.ParseOperator(string(f.Operator))
	if !ok {
		return f, false
	}
	f.Operator = op
	return f, true
}

// ClearFilters drops every column filter and the search text.
func (c *Controller) ClearFilters() {
	c.update(func() Event {
		c.searchTimer.Cancel()
		if len(c.filters) == 0 && c.search == "" && c.pendingSearch == "" {
			return nil
		}
		c.filters = nil
		c.search, c.pendingSearch = "", ""
		c.queryChangedLocked()
		return c.filterEventLocked()
	})
}

func (c *Controller) filterEventLocked() Event {
	return FilterChangeEvent{Filters: slices.Clone(c.filters), Search: c.search}
}

// queryChangedLocked recomputes rows after a sort, search or filter change
// and, for server-side providers, schedules a reload.
func (c *Controller) queryChangedLocked() {
	c.refresh()
	if c.opts.RemoteQuery {
		c.scheduleLoadLocked()
	}
}
