package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/debounce"
	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/sorting"
)

func newController(t *testing.T) *controller.Controller {
	t.Helper()
	opts := controller.DefaultOptions()
	opts.Scheduler = debounce.NewManualScheduler()
	ctl := controller.New(opts)
	t.Cleanup(ctl.Close)
	require.NoError(t, ctl.SetColumns([]grid.Column{
		{ID: "name", Field: "name", Title: "Name", Type: grid.TypeText, Sortable: true, Filterable: true},
		{ID: "age", Field: "age", Title: "Age", Type: grid.TypeNumber, Sortable: true, Filterable: true},
	}))
	return ctl
}

func TestStoreMissingFile(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	_, ok, err := s.Load("ds")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreRoundTripKeepsOtherDatasets(t *testing.T) {
	s := Store{Dir: filepath.Join(t.TempDir(), "nested")}
	off := false
	first := Layout{
		Sort:            sorting.Spec{{ColumnID: "age", Direction: sorting.Desc}},
		Filters:         []filtering.Filter{{ColumnID: "name", Operator: filtering.Contains, Value: "a"}},
		PerformanceMode: perf.Performance,
		Virtualized:     &off,
	}
	require.NoError(t, s.Save("one", first))
	require.NoError(t, s.Save("two", Layout{PerformanceMode: perf.Auto}))

	got, ok, err := s.Load("one")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, got)

	got, ok, err = s.Load("two")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, perf.Auto, got.PerformanceMode)

	_, err = os.Stat(s.path() + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(s.path(), []byte("{"), 0o600))
	_, _, err := s.Load("ds")
	require.Error(t, err)
}

func TestApplyRestoresView(t *testing.T) {
	ctl := newController(t)
	off := false
	Apply(ctl, Layout{
		Sort: sorting.Spec{
			{ColumnID: "age", Direction: sorting.Desc},
			{ColumnID: "gone", Direction: sorting.Asc},
		},
		Filters: []filtering.Filter{
			{ColumnID: "name", Operator: filtering.Contains, Value: "a"},
			{ColumnID: "gone", Operator: filtering.Equals, Value: "x"},
		},
		PerformanceMode: perf.Performance,
		Virtualized:     &off,
	})

	v := ctl.View()
	require.Equal(t, sorting.Spec{{ColumnID: "age", Direction: sorting.Desc}}, v.Sort)
	require.Len(t, v.Filters, 1)
	require.Equal(t, "name", v.Filters[0].ColumnID)
	require.Equal(t, perf.Performance, v.PerformanceMode)
	require.False(t, v.Virtualize)

	l := Capture(v)
	require.Equal(t, v.Sort, l.Sort)
	require.NotNil(t, l.Virtualized)
	require.False(t, *l.Virtualized)
}
