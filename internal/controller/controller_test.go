package controller

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/gridcore/internal/debounce"
	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/selection"
	"github.com/jask/gridcore/internal/sorting"
	"github.com/jask/gridcore/internal/virtual"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) kinds() []string {
	var out []string
	for _, e := range r.all() {
		out = append(out, e.Kind())
	}
	return out
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, e := range r.all() {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func newTestController(t *testing.T, mutate func(*Options)) (*Controller, *debounce.ManualScheduler, *recorder) {
	t.Helper()
	sched := debounce.NewManualScheduler()
	opts := DefaultOptions()
	opts.Scheduler = sched
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if mutate != nil {
		mutate(&opts)
	}
	c := New(opts)
	t.Cleanup(c.Close)
	rec := &recorder{}
	c.Subscribe(rec.add)
	return c, sched, rec
}

func peopleColumns() []grid.Column {
	return []grid.Column{
		{ID: "name", Field: "name", Title: "Name", Type: grid.TypeText, Sortable: true, Filterable: true,
			Editor: &grid.Editor{Kind: grid.EditorText, Rules: []grid.RuleSpec{{Kind: "required"}}}},
		{ID: "age", Field: "age", Title: "Age", Type: grid.TypeNumber, Sortable: true, Filterable: true,
			Editor: &grid.Editor{Kind: grid.EditorNumber, Rules: []grid.RuleSpec{{Kind: "min", Arg: "0"}}}},
		{ID: "note", Field: "note", Title: "Note"},
	}
}

func peopleRows() []grid.Row {
	return []grid.Row{
		{ID: "1", Data: map[string]any{"name": "Bob", "age": 41}},
		{ID: "2", Data: map[string]any{"name": "Amy", "age": 29}},
		{ID: "3", Data: map[string]any{"name": "Amy", "age": 35}},
		{ID: "4", Data: map[string]any{"name": "Dee", "age": 52}},
	}
}

func numberedRows(n int) []grid.Row {
	rows := make([]grid.Row, n)
	for i := range rows {
		rows[i] = grid.Row{ID: fmt.Sprintf("r%04d", i), Data: map[string]any{"name": fmt.Sprintf("row %d", i), "age": i}}
	}
	return rows
}

func withPeople(t *testing.T, mutate func(*Options)) (*Controller, *debounce.ManualScheduler, *recorder) {
	t.Helper()
	c, sched, rec := newTestController(t, mutate)
	require.NoError(t, c.SetColumns(peopleColumns()))
	require.NoError(t, c.SetRows(peopleRows()))
	rec.reset()
	return c, sched, rec
}

func TestSortByNameIsStable(t *testing.T) {
	c, _, rec := newTestController(t, nil)
	require.NoError(t, c.SetColumns(peopleColumns()))
	require.NoError(t, c.SetRows(peopleRows()[:3]))
	rec.reset()

	c.ToggleSort("name")
	require.Equal(t, []string{"2", "3", "1"}, c.LogicalIDs())
	require.Equal(t, []Event{SortEvent{
		ColumnID:  "name",
		Direction: sorting.Asc,
		Spec:      sorting.Spec{{ColumnID: "name", Direction: sorting.Asc}},
	}}, rec.all())
}

func TestToggleSortThreeTimesIsIdentity(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	unsorted := c.LogicalIDs()

	c.ToggleSort("age")
	asc := c.LogicalIDs()
	require.Equal(t, []string{"2", "3", "1", "4"}, asc)

	c.ToggleSort("age")
	desc := c.LogicalIDs()
	reversed := slices.Clone(asc)
	slices.Reverse(reversed)
	require.Equal(t, reversed, desc)

	c.ToggleSort("age")
	require.Nil(t, c.View().Sort)
	require.Equal(t, unsorted, c.LogicalIDs())
	require.Equal(t, []string{"sort", "sort", "sort"}, rec.kinds())
	require.Equal(t, sorting.Direction(""), rec.all()[2].(SortEvent).Direction)

	// with an existing key the toggled column becomes primary and then leaves
	c.SetSort(sorting.Spec{{ColumnID: "name", Direction: sorting.Desc}})
	before := c.View().Sort
	c.ToggleSort("age")
	require.Equal(t, sorting.Spec{{ColumnID: "age", Direction: sorting.Asc}, {ColumnID: "name", Direction: sorting.Desc}}, c.View().Sort)
	c.ToggleSort("age")
	c.ToggleSort("age")
	require.Equal(t, before, c.View().Sort)
}

func TestSortIgnoresUnknownAndUnsortableColumns(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	c.ToggleSort("missing")
	c.ToggleSort("note")
	c.SetSort(sorting.Spec{{ColumnID: "note"}, {ColumnID: "ghost"}})
	require.Empty(t, rec.all())
	require.Nil(t, c.View().Sort)
}

func TestSearchIsDebounced(t *testing.T) {
	c, sched, rec := withPeople(t, nil)

	c.SetSearch("am")
	sched.Advance(299 * time.Millisecond)
	require.Len(t, c.LogicalIDs(), 4)
	require.Empty(t, rec.all())

	c.SetSearch("amy")
	require.Equal(t, 1, sched.Pending(), "one search timer at a time")
	sched.Advance(299 * time.Millisecond)
	require.Empty(t, rec.all())
	require.Equal(t, "amy", c.View().PendingSearch)

	sched.Advance(time.Millisecond)
	require.Equal(t, []string{"2", "3"}, c.LogicalIDs())
	require.Equal(t, []Event{FilterChangeEvent{Search: "amy"}}, rec.all())
	require.Equal(t, 0, sched.Pending())
}

func TestFlushSearchAppliesImmediately(t *testing.T) {
	c, sched, rec := withPeople(t, nil)
	c.SetSearch("dee")
	c.FlushSearch()
	require.Equal(t, []string{"4"}, c.LogicalIDs())
	require.Equal(t, 0, sched.Pending())
	sched.Advance(time.Second)
	require.Equal(t, 1, rec.count("filterChange"))

	c.FlushSearch()
	require.Equal(t, 1, rec.count("filterChange"), "nothing pending, nothing published")
}

func TestColumnFiltersApplyImmediately(t *testing.T) {
	c, _, rec := withPeople(t, nil)

	c.SetFilter(filtering.Filter{ColumnID: "age", Operator: "GT", Value: "30"})
	require.Equal(t, []string{"1", "3", "4"}, c.LogicalIDs())

	// a second operator on the same column narrows to a range
	c.SetFilter(filtering.Filter{ColumnID: "age", Operator: filtering.Less, Value: 45})
	require.Equal(t, []string{"1", "3"}, c.LogicalIDs())
	require.Len(t, c.View().Filters, 2)

	// same column and operator replaces
	c.SetFilter(filtering.Filter{ColumnID: "age", Operator: filtering.Greater, Value: 36})
	require.Equal(t, []string{"1"}, c.LogicalIDs())
	require.Equal(t, []filtering.Filter{
		{ColumnID: "age", Operator: filtering.Greater, Value: 36},
		{ColumnID: "age", Operator: filtering.Less, Value: 45},
	}, c.View().Filters)

	c.SetFilter(filtering.Filter{ColumnID: "name", Operator: filtering.StartsWith, Value: "a"})
	require.Empty(t, c.LogicalIDs())

	// ignored
	c.SetFilter(filtering.Filter{ColumnID: "note", Operator: filtering.Equals, Value: ""})
	c.SetFilter(filtering.Filter{ColumnID: "ghost", Operator: filtering.Equals, Value: ""})
	c.SetFilter(filtering.Filter{ColumnID: "age", Operator: "between", Value: 1})
	c.SetFilter(filtering.Filter{ColumnID: "age", Operator: filtering.Greater, Value: 36})
	require.Equal(t, 4, rec.count("filterChange"))

	c.RemoveFilter("name")
	require.Equal(t, []string{"1"}, c.LogicalIDs())
	c.RemoveFilter("name")
	c.RemoveFilter("age", filtering.Greater)
	require.Equal(t, []string{"1", "2", "3"}, c.LogicalIDs())
	require.Len(t, c.View().Filters, 1)
	c.ClearFilters()
	require.Len(t, c.LogicalIDs(), 4)
	c.ClearFilters()
	require.Equal(t, 7, rec.count("filterChange"))
}

func TestSetColumnFiltersReplacesOneColumn(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	c.SetFilter(filtering.Filter{ColumnID: "name", Operator: filtering.Equals, Value: "amy"})
	c.SetFilter(filtering.Filter{ColumnID: "age", Operator: filtering.Greater, Value: 40})
	rec.reset()

	c.SetColumnFilters("age", []filtering.Filter{
		{ColumnID: "age", Operator: filtering.GreaterEq, Value: 30},
		{ColumnID: "age", Operator: "lte", Value: 35},
		{ColumnID: "name", Operator: filtering.Equals, Value: "bob"},
	})
	require.Equal(t, []string{"3"}, c.LogicalIDs())
	require.Equal(t, []filtering.Filter{
		{ColumnID: "name", Operator: filtering.Equals, Value: "amy"},
		{ColumnID: "age", Operator: filtering.GreaterEq, Value: 30},
		{ColumnID: "age", Operator: filtering.LessEq, Value: 35},
	}, c.View().Filters)
	require.Equal(t, 1, rec.count("filterChange"))

	c.SetColumnFilters("age", nil)
	require.Equal(t, []string{"2", "3"}, c.LogicalIDs())
	c.SetColumnFilters("age", nil)
	require.Equal(t, 2, rec.count("filterChange"))
}

func TestSelectAllOnlySelectsFilteredRows(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	c.SetFilter(filtering.Filter{ColumnID: "name", Operator: filtering.Equals, Value: "amy"})
	rec.reset()

	c.SelectAll()
	require.Equal(t, []string{"2", "3"}, c.View().Selection)
	require.Equal(t, []Event{SelectionChangeEvent{SelectedIDs: []string{"2", "3"}}}, rec.all())

	// selection survives the filter going away
	c.ClearFilters()
	require.Equal(t, []string{"2", "3"}, c.View().Selection)
}

func TestMaxSelectionsStopsAtTwo(t *testing.T) {
	c, _, rec := withPeople(t, func(o *Options) { o.MaxSelections = 2 })
	c.ToggleSelection("1")
	c.ToggleSelection("2")
	c.ToggleSelection("3")
	require.Len(t, c.View().Selection, 2)
	require.Equal(t, 2, rec.count("selectionChange"))

	c.ToggleSelection("ghost")
	require.Equal(t, 2, rec.count("selectionChange"))
}

func TestSelectionModes(t *testing.T) {
	c, _, rec := withPeople(t, func(o *Options) { o.SelectionMode = selection.Single })
	c.ToggleSelection("1")
	c.ToggleSelection("2")
	require.Equal(t, []string{"2"}, c.View().Selection)
	c.SelectAll()
	require.Equal(t, []string{"2"}, c.View().Selection)

	c.SetSelectionMode(selection.None)
	require.Empty(t, c.View().Selection)
	c.ToggleSelection("3")
	require.Empty(t, c.View().Selection)
	require.Equal(t, []string{"selectionChange", "selectionChange", "selectionChange"}, rec.kinds())
}

func TestDisabledRowsCannotBeSelected(t *testing.T) {
	c, _, _ := newTestController(t, nil)
	require.NoError(t, c.SetColumns(peopleColumns()))
	rows := peopleRows()
	rows[0].Disabled = true
	require.NoError(t, c.SetRows(rows))

	c.ToggleSelection("1")
	c.SelectAll()
	require.Equal(t, []string{"2", "3", "4"}, c.View().Selection)
}

func TestReloadPrunesSelection(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	c.SelectAll()
	rec.reset()

	require.NoError(t, c.SetRows(peopleRows()[2:]))
	require.Equal(t, []string{"3", "4"}, c.View().Selection)
	require.Equal(t, []Event{LoadEvent{Rows: 2, SelectionChanged: true, SelectedIDs: []string{"3", "4"}}}, rec.all())

	// nothing dropped, nothing reported
	rec.reset()
	require.NoError(t, c.SetRows(peopleRows()))
	require.Equal(t, []Event{LoadEvent{Rows: 4}}, rec.all())

	rec.reset()
	c.ClearSelection()
	c.ToggleSelection("1")
	rec.reset()
	require.NoError(t, c.SetRows(peopleRows()[1:]))
	evs := rec.all()
	require.Len(t, evs, 1)
	ev := evs[0].(LoadEvent)
	require.True(t, ev.SelectionChanged)
	require.Empty(t, ev.SelectedIDs)
	require.Empty(t, c.View().Selection)
}

func TestVisibleRangeFollowsScroll(t *testing.T) {
	c, _, rec := newTestController(t, nil)
	require.NoError(t, c.SetColumns(peopleColumns()))
	require.NoError(t, c.SetRows(numberedRows(1000)))
	rec.reset()

	c.SetViewport(400)
	require.Equal(t, []Event{RangeChangeEvent{Start: 0, End: 20}}, rec.all())

	c.Scroll(2000)
	v := c.View()
	require.Equal(t, virtual.Range{Start: 45, End: 70}, v.Range)
	require.Len(t, v.Rows, 25)
	require.Equal(t, "r0045", v.Rows[0].ID)
	require.Equal(t, 1800.0, v.SpacerBefore)
	require.Equal(t, 37200.0, v.SpacerAfter)
	require.Equal(t, 40000.0, v.TotalHeight)
	require.Equal(t, RangeChangeEvent{Start: 45, End: 70}, rec.all()[1])

	c.Scroll(2000)
	require.Len(t, rec.all(), 2, "same offset publishes nothing")

	c.Scroll(1e9)
	v = c.View()
	require.Equal(t, 39600.0, v.ScrollOffset)
	require.Equal(t, virtual.Range{Start: 985, End: 1000}, v.Range)

	c.SetVirtualization(false)
	require.Equal(t, virtual.Range{Start: 0, End: 1000}, c.View().Range)
	require.False(t, c.View().Virtualized)
}

func TestMoveFocusScrollsIntoView(t *testing.T) {
	c, _, rec := newTestController(t, nil)
	require.NoError(t, c.SetColumns(peopleColumns()))
	require.NoError(t, c.SetRows(numberedRows(100)))
	c.SetViewport(400)
	rec.reset()

	c.MoveFocus(1)
	require.Equal(t, "r0000", c.View().FocusedID)
	c.MoveFocus(15)
	v := c.View()
	require.Equal(t, "r0015", v.FocusedID)
	require.Equal(t, 240.0, v.ScrollOffset)
	require.Equal(t, []string{"focusChange", "focusChange"}, rec.kinds())

	c.MoveFocus(1000)
	require.Equal(t, "r0099", c.View().FocusedID)

	c.ScrollToRow("r0000")
	require.Equal(t, 0.0, c.View().ScrollOffset)
}

func TestExtendSelection(t *testing.T) {
	c, _, _ := withPeople(t, nil)
	c.ToggleSelection("2")
	c.ExtendSelection("4")
	require.ElementsMatch(t, []string{"2", "3", "4"}, c.View().Selection)
	require.Equal(t, "4", c.View().FocusedID)
}

func TestExportUsesSelectionElseLogicalRows(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	c.ToggleSort("age")
	rows := c.RequestExport("csv")
	require.Equal(t, []string{"2", "3", "1", "4"}, ids(rows))

	c.ToggleSelection("4")
	c.ToggleSelection("1")
	rows = c.RequestExport("json")
	require.Equal(t, []string{"1", "4"}, ids(rows), "selected rows in load order")

	ev := rec.all()[len(rec.all())-1].(ExportRequestEvent)
	require.Equal(t, "json", ev.Format)
	require.Equal(t, []string{"1", "4"}, ids(ev.Rows))
	require.Len(t, ev.Columns, 3)

	// exported rows are copies
	rows[0].Data["name"] = "changed"
	require.Equal(t, "Bob", c.View().Rows[2].Data["name"])
}

func TestPerformanceEscalationVirtualizes(t *testing.T) {
	c, _, rec := newTestController(t, func(o *Options) {
		o.Virtualize = false
		o.PerformanceMode = perf.Auto
	})
	require.NoError(t, c.SetColumns(peopleColumns()))
	require.NoError(t, c.SetRows(numberedRows(600)))
	require.False(t, c.View().Virtualized)
	require.Equal(t, 600, c.View().Range.End)
	rec.reset()

	c.RecordRender(5 * time.Millisecond)
	require.Empty(t, rec.all())

	c.RecordRender(40 * time.Millisecond)
	v := c.View()
	require.True(t, v.Virtualized)
	require.True(t, v.SuppressAnimations)
	require.Equal(t, 10, v.Range.End)
	require.Equal(t, []string{"performance"}, rec.kinds())

	c.RecordRender(time.Millisecond)
	require.True(t, c.View().Virtualized, "escalation is not undone by fast frames")

	c.ResetPerformance()
	require.False(t, c.View().Virtualized)
}

func TestInvalidConfigurationDegrades(t *testing.T) {
	c, _, rec := newTestController(t, nil)
	cols := peopleColumns()
	cols[1].ID = "name"
	err := c.SetColumns(cols)
	require.ErrorIs(t, err, grid.ErrDuplicateColumn)
	require.NoError(t, c.SetRows(peopleRows()))
	v := c.View()
	require.Equal(t, 0, v.LogicalCount)
	require.Empty(t, v.Columns)
	require.ErrorIs(t, v.ModelErr, grid.ErrDuplicateColumn)

	require.NoError(t, c.SetColumns(peopleColumns()))
	require.Equal(t, 4, c.View().LogicalCount)

	err = c.SetRows([]grid.Row{{ID: "a"}, {Data: map[string]any{"name": "x"}}})
	require.ErrorIs(t, err, grid.ErrMissingRowID)
	require.Equal(t, 0, c.View().LogicalCount)
	require.Equal(t, LoadEvent{Rows: 0, Err: err}, rec.all()[len(rec.all())-1])
}

func TestSubscribersMayCallBack(t *testing.T) {
	c, _, _ := withPeople(t, nil)
	var seen []string
	unsubscribe := c.Subscribe(func(e Event) {
		seen = append(seen, e.Kind())
		if _, ok := e.(SortEvent); ok {
			_ = c.View()
			c.ToggleSelection("1")
		}
	})
	c.ToggleSort("name")
	require.Equal(t, []string{"sort", "selectionChange"}, seen)

	unsubscribe()
	c.ToggleSort("name")
	require.Len(t, seen, 2)
}

func TestClosedControllerIgnoresOperations(t *testing.T) {
	c, _, rec := withPeople(t, nil)
	c.SetSearch("amy")
	c.Close()
	c.ToggleSort("name")
	c.ToggleSelection("1")
	require.ErrorIs(t, c.BeginEdit("1", "name"), ErrClosed)
	require.ErrorIs(t, c.Load(), ErrClosed)
	require.Empty(t, rec.all())
	c.Close()
}

func ids(rows []grid.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
