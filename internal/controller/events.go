package controller

import (
	"github.com/jask/gridcore/internal/editing"
	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/sorting"
)

// Event is a change notification. Each operation publishes at most one.
type Event interface {
	Kind() string
	event()
}

// SortEvent reports a sort change. Direction is empty when the column was
// removed from the spec.
type SortEvent struct {
	ColumnID  string
	Direction sorting.Direction
	Spec      sorting.Spec
}

type FilterChangeEvent struct {
	Filters []filtering.Filter
	Search  string
}

// SelectionChangeEvent carries the full selected set after the change.
type SelectionChangeEvent struct {
	SelectedIDs []string
}

type CellEditEvent struct {
	RowID    string
	ColumnID string
	OldValue any
	NewValue any
}

type RangeChangeEvent struct {
	Start int
	End   int
}

// ExportRequestEvent carries the selected rows, or every logical row when
// nothing is selected.
type ExportRequestEvent struct {
	Rows    []grid.Row
	Columns []grid.Column
	Format  string
}

// LoadEvent reports that provider data replaced the rows, or that the load
// failed and the previous rows were kept. When the new rows dropped selected
// ids, SelectionChanged is set and SelectedIDs holds the full remaining set,
// as a SelectionChangeEvent would.
type LoadEvent struct {
	Rows             int
	Err              error
	SelectionChanged bool
	SelectedIDs      []string
}

// EditStateEvent reports an opened or updated edit session.
type EditStateEvent struct {
	Session editing.Session
}

type FocusChangeEvent struct {
	FocusedID string
}

type PerformanceEvent struct {
	Escalation perf.Escalation
	Stats      perf.Stats
}

type ColumnsChangeEvent struct {
	Columns []grid.Column
	Err     error
}

func (SortEvent) Kind() string            { return "sort" }
func (FilterChangeEvent) Kind() string    { return "filterChange" }
func (SelectionChangeEvent) Kind() string { return "selectionChange" }
func (CellEditEvent) Kind() string        { return "cellEdit" }
func (RangeChangeEvent) Kind() string     { return "rangeChange" }
func (ExportRequestEvent) Kind() string   { return "exportRequest" }
func (LoadEvent) Kind() string            { return "load" }
func (EditStateEvent) Kind() string       { return "editState" }
func (FocusChangeEvent) Kind() string     { return "focusChange" }
func (PerformanceEvent) Kind() string     { return "performance" }
func (ColumnsChangeEvent) Kind() string   { return "columnsChange" }

func (SortEvent) event()            {}
func (FilterChangeEvent) event()    {}
func (SelectionChangeEvent) event() {}
func (CellEditEvent) event()        {}
func (RangeChangeEvent) event()     {}
func (ExportRequestEvent) event()   {}
func (LoadEvent) event()            {}
func (EditStateEvent) event()       {}
func (FocusChangeEvent) event()     {}
func (PerformanceEvent) event()     {}
func (ColumnsChangeEvent) event()   {}
