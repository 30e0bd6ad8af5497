package controller

import (
	"log/slog"
	"time"

	"github.com/jask/gridcore/internal/debounce"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/selection"
)

const (
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultLoadDebounce   = 500 * time.Millisecond
	DefaultRowHeight      = 40
	DefaultOverscan       = 5
)

// Options configures a Controller. Start from DefaultOptions; the zero value
// disables debouncing and virtualization.
type Options struct {
	// RowHeight is the fixed height of every row. Ignored when RowHeightFunc is set.
	RowHeight float64
	// RowHeightFunc switches the scroller to per-row heights.
	RowHeightFunc func(grid.Row) float64
	Overscan      int
	Virtualize    bool

	PerformanceMode     perf.Mode
	RenderBudget        time.Duration
	VirtualizeThreshold int
	SampleSize          int

	SearchDebounce time.Duration
	LoadDebounce   time.Duration

	SelectionMode selection.Mode
	MaxSelections int

	Editable bool

	// PageSize is forwarded to the provider; 0 asks for everything.
	PageSize int
	// RemoteQuery reloads from the provider whenever sort, search or filters
	// change, for providers that filter server-side.
	RemoteQuery bool

	Provider  DataProvider
	Scheduler debounce.Scheduler
	Logger    *slog.Logger
	// Now is the clock used to time renders.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		RowHeight:           DefaultRowHeight,
		Overscan:            DefaultOverscan,
		Virtualize:          true,
		PerformanceMode:     perf.Standard,
		RenderBudget:        perf.DefaultBudget,
		VirtualizeThreshold: perf.DefaultThreshold,
		SampleSize:          perf.DefaultSampleSize,
		SearchDebounce:      DefaultSearchDebounce,
		LoadDebounce:        DefaultLoadDebounce,
		SelectionMode:       selection.Multiple,
		Editable:            true,
	}
}

func (o Options) withDefaults() Options {
	if o.Scheduler == nil {
		o.Scheduler = debounce.Clock{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.SelectionMode == "" {
		o.SelectionMode = selection.None
	}
	return o
}
