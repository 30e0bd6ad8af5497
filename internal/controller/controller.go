// Package controller composes the grid engine: it owns the model and every
// piece of view state, applies operations in a fixed order and publishes one
// notification per observable change.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jask/gridcore/internal/debounce"
	"github.com/jask/gridcore/internal/editing"
	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/selection"
	"github.com/jask/gridcore/internal/sorting"
	"github.com/jask/gridcore/internal/virtual"
)

var (
	ErrClosed     = errors.New("controller closed")
	ErrNoProvider = errors.New("no data provider configured")
)

// View is a read-only snapshot for a renderer. Rows holds only the windowed
// rows; SpacerBefore and SpacerAfter stand in for the rest.
type View struct {
	Columns      []grid.Column
	Rows         []grid.Row
	Range        virtual.Range
	SpacerBefore float64
	SpacerAfter  float64
	TotalHeight  float64
	ScrollOffset float64
	Viewport     float64
	LogicalCount int

	Selection     []string
	SelectionMode selection.Mode
	FocusedID     string
	Edit          *editing.Session

	Sort          sorting.Spec
	Filters       []filtering.Filter
	Search        string
	PendingSearch string

	// Virtualize is the host's setting; Virtualized also reflects escalation.
	Virtualize         bool
	Virtualized        bool
	SuppressAnimations bool
	PerformanceMode    perf.Mode
	Stats              perf.Stats

	Loading  bool
	LoadErr  error
	ModelErr error
}

type subscriber struct {
	id string
	fn func(Event)
}

// Controller is the single writer of grid state. All methods are safe for
// concurrent use; debounce timers and provider results arrive on their own
// goroutines and are serialized by mu. Subscribers are called after mu is
// released, in the order the changes happened.
type Controller struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	model    *grid.Model
	sel      *selection.Manager
	scroller *virtual.Scroller
	edit     *editing.Manager
	perf     *perf.Monitor

	sort          sorting.Spec
	filters       []filtering.Filter
	search        string
	pendingSearch string

	logical    []grid.Row
	offset     float64
	viewport   float64
	rng        virtual.Range
	virtualize bool
	escalation perf.Escalation

	page       int
	loading    bool
	loadErr    error
	loadToken  string
	loadCancel context.CancelFunc

	searchTimer *debounce.Debouncer
	loadTimer   *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	qmu      sync.Mutex
	subs     []subscriber
	queue    []Event
	draining bool
}

// New creates an empty controller. Call SetColumns and SetRows or Load to
// give it data.
func New(opts Options) *Controller {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		opts:       opts,
		log:        opts.Logger,
		model:      grid.NewModel(),
		sel:        selection.New(opts.SelectionMode, opts.MaxSelections),
		edit:       editing.NewManager(),
		virtualize: opts.Virtualize,
		ctx:        ctx,
		cancel:     cancel,
	}
	c.sel.SetDisabled(c.model.Disabled)
	c.perf = perf.NewMonitor(perf.Options{
		Mode:       opts.PerformanceMode,
		Budget:     opts.RenderBudget,
		Threshold:  opts.VirtualizeThreshold,
		SampleSize: opts.SampleSize,
		Now:        opts.Now,
	})
	c.escalation = c.perf.Escalation()
	if opts.RowHeightFunc != nil {
		c.scroller = virtual.NewVariable(func(i int) float64 {
			if i < 0 || i >= len(c.logical) {
				return 0
			}
			return opts.RowHeightFunc(c.logical[i])
		}, opts.Overscan)
	} else {
		c.scroller = virtual.NewFixed(opts.RowHeight, opts.Overscan)
	}
	c.searchTimer = debounce.New(opts.Scheduler, opts.SearchDebounce)
	c.loadTimer = debounce.New(opts.Scheduler, opts.LoadDebounce)
	c.recomputeRange()
	return c
}

// Subscribe registers fn for every notification and returns a function that
// removes it. fn may call back into the controller.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := uuid.NewString()
	c.qmu.Lock()
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.qmu.Unlock()
	return func() {
		c.qmu.Lock()
		defer c.qmu.Unlock()
		c.subs = slices.DeleteFunc(c.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Close cancels timers and any in-flight load. Later operations are no-ops
// or return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.searchTimer.Cancel()
	c.loadTimer.Cancel()
	c.cancel()
	c.loading = false
	c.qmu.Lock()
	c.subs = nil
	c.queue = nil
	c.qmu.Unlock()
}

// View returns a snapshot of everything a renderer needs.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]grid.Row, 0, c.rng.Len())
	for _, r := range c.logical[c.rng.Start:c.rng.End] {
		rows = append(rows, r.Clone())
	}
	before, after := c.scroller.Spacers(c.rng)
	v := View{
		Columns:            c.model.Columns(),
		Rows:               rows,
		Range:              c.rng,
		SpacerBefore:       before,
		SpacerAfter:        after,
		TotalHeight:        c.scroller.TotalHeight(),
		ScrollOffset:       c.offset,
		Viewport:           c.viewport,
		LogicalCount:       len(c.logical),
		Selection:          c.sel.Selected(),
		SelectionMode:      c.sel.Mode(),
		FocusedID:          c.sel.Focused(),
		Sort:               c.sort.Clone(),
		Filters:            slices.Clone(c.filters),
		Search:             c.search,
		PendingSearch:      c.pendingSearch,
		Virtualize:         c.virtualize,
		Virtualized:        c.scroller.Enabled(),
		SuppressAnimations: c.escalation.SuppressAnimations,
		PerformanceMode:    c.perf.Mode(),
		Stats:              c.perf.Stats(),
		Loading:            c.loading,
		LoadErr:            c.loadErr,
		ModelErr:           c.model.Err(),
	}
	if s, ok := c.edit.Active(); ok {
		v.Edit = &s
	}
	return v
}

// LogicalIDs returns the ids of the filtered and sorted rows in order.
func (c *Controller) LogicalIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logicalIDsLocked()
}

// IndexOf returns the logical position of a row, or -1.
func (c *Controller) IndexOf(rowID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexLocked(rowID)
}

// update runs fn under the lock, checks invariants and publishes the event
// fn returns, if any.
func (c *Controller) update(fn func() Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ev := fn()
	c.checkInvariants()
	c.enqueueLocked(ev)
	c.mu.Unlock()
	c.drain()
}

// enqueueLocked must run with mu held so queue order matches operation order.
func (c *Controller) enqueueLocked(ev Event) {
	if ev == nil {
		return
	}
	c.qmu.Lock()
	c.queue = append(c.queue, ev)
	c.qmu.Unlock()
}

// drain delivers queued events. Only one goroutine drains at a time; events
// enqueued by handlers are delivered by the outer drain once the handler
// returns.
func (c *Controller) drain() {
	c.qmu.Lock()
	if c.draining {
		c.qmu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		ev := c.queue[0]
		c.queue = c.queue[1:]
		subs := slices.Clone(c.subs)
		c.qmu.Unlock()
		for _, s := range subs {
			s.fn(ev)
		}
		c.qmu.Lock()
	}
	c.draining = false
	c.qmu.Unlock()
}

// recomputeLogical rebuilds the filtered and sorted row list.
func (c *Controller) recomputeLogical() {
	var rows []grid.Row
	if c.model.Usable() {
		rows = filtering.Apply(c.model.Rows(), c.model, c.search, c.filters)
		rows = sorting.Apply(rows, c.model, c.sort)
	}
	c.logical = rows
	c.scroller.SetTotal(len(rows))
	c.scroller.Invalidate()
}

// recomputeRange reports whether the visible range moved.
func (c *Controller) recomputeRange() bool {
	c.scroller.SetEnabled(c.virtualize || c.escalation.Virtualize)
	c.offset = min(max(c.offset, 0), c.scroller.MaxOffset(c.viewport))
	r := c.scroller.Range(c.offset, c.viewport)
	if !c.scroller.Enabled() {
		r = virtual.Range{Start: 0, End: len(c.logical)}
	}
	changed := r != c.rng
	c.rng = r
	return changed
}

func (c *Controller) refresh() {
	c.recomputeLogical()
	c.recomputeRange()
}

func (c *Controller) logicalIDsLocked() []string {
	ids := make([]string, len(c.logical))
	for i, r := range c.logical {
		ids[i] = r.ID
	}
	return ids
}

func (c *Controller) indexLocked(rowID string) int {
	return slices.IndexFunc(c.logical, func(r grid.Row) bool { return r.ID == rowID })
}
