package controller

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/sorting"
)

// SetColumns replaces the column set. A rejected set leaves the grid empty
// until valid columns arrive; the error is also reported by View.ModelErr.
func (c *Controller) SetColumns(cols []grid.Column) error {
	var err error
	c.update(func() Event {
		err = c.model.SetColumns(cols)
		if err != nil {
			c.log.Warn("column set rejected", "err", err)
		}
		c.edit.ForgetRules()
		if s, ok := c.edit.Active(); ok {
			if col, ok := c.model.Column(s.ColumnID); !ok || !col.Editable() {
				c.edit.Discard()
			}
		}
		c.sort = slices.DeleteFunc(c.sort.Clone(), func(k sorting.Key) bool {
			col, ok := c.model.Column(k.ColumnID)
			return !ok || !col.Sortable
		})
		if len(c.sort) == 0 {
			c.sort = nil
		}
		c.filters = slices.DeleteFunc(slices.Clone(c.filters), func(f filtering.Filter) bool {
			col, ok := c.model.Column(f.ColumnID)
			return !ok || !col.Filterable
		})
		if len(c.filters) == 0 {
			c.filters = nil
		}
		c.refresh()
		return ColumnsChangeEvent{Columns: c.model.Columns(), Err: err}
	})
	return err
}

// SetRows replaces every row, as a provider result would.
func (c *Controller) SetRows(rows []grid.Row) error {
	var err error
	c.update(func() Event {
		var pruned bool
		pruned, err = c.replaceRowsLocked(rows)
		return c.loadEventLocked(pruned, err)
	})
	return err
}

// replaceRowsLocked swaps in rows and reports whether the selection lost ids.
func (c *Controller) replaceRowsLocked(rows []grid.Row) (bool, error) {
	err := c.model.SetRows(rows)
	if err != nil {
		c.log.Warn("row set rejected", "err", err)
	}
	pruned := c.sel.Prune(func(id string) bool {
		return c.model.Has(id) && !c.model.Disabled(id)
	})
	if s, ok := c.edit.Active(); ok && !c.model.Has(s.RowID) {
		c.edit.Discard()
		c.log.Debug("edit discarded, row no longer present", "row", s.RowID)
	}
	c.refresh()
	return pruned, err
}

func (c *Controller) loadEventLocked(pruned bool, err error) LoadEvent {
	ev := LoadEvent{Rows: c.model.RowCount(), Err: err}
	if pruned {
		ev.SelectionChanged = true
		ev.SelectedIDs = c.sel.Selected()
	}
	return ev
}

// Load asks the provider for fresh rows after the load debounce. Repeated
// calls within the window collapse into one fetch, and a fetch already in
// flight is cancelled so its rows are never applied.
func (c *Controller) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.opts.Provider == nil {
		return ErrNoProvider
	}
	c.scheduleLoadLocked()
	return nil
}

// LoadNow fetches immediately, superseding any pending or in-flight load.
func (c *Controller) LoadNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.opts.Provider == nil {
		return ErrNoProvider
	}
	c.loadTimer.Cancel()
	c.startFetchLocked()
	return nil
}

// SetPage selects the provider page and reloads.
func (c *Controller) SetPage(page int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.opts.Provider == nil {
		return ErrNoProvider
	}
	page = max(page, 0)
	if page == c.page {
		return nil
	}
	c.page = page
	c.scheduleLoadLocked()
	return nil
}

func (c *Controller) scheduleLoadLocked() {
	if c.opts.Provider == nil {
		return
	}
	if c.opts.LoadDebounce <= 0 {
		c.startFetchLocked()
		return
	}
	c.supersedeLocked()
	c.loading = true
	c.loadTimer.Trigger(c.fireLoad)
}

// supersedeLocked cancels the in-flight fetch and forgets its token, so
// finishLoad drops whatever it returns.
func (c *Controller) supersedeLocked() {
	if c.loadCancel == nil {
		return
	}
	c.log.Debug("superseding load", "token", c.loadToken)
	c.loadCancel()
	c.loadCancel = nil
	c.loadToken = ""
}

func (c *Controller) fireLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.startFetchLocked()
}

func (c *Controller) queryLocked() Query {
	return Query{
		Search:   c.search,
		Filters:  slices.Clone(c.filters),
		Sort:     c.sort.Clone(),
		Page:     c.page,
		PageSize: c.opts.PageSize,
	}
}

func (c *Controller) startFetchLocked() {
	c.supersedeLocked()
	token := uuid.NewString()
	ctx, cancel := context.WithCancel(c.ctx)
	c.loadToken = token
	c.loadCancel = cancel
	c.loading = true

	provider := c.opts.Provider
	q := c.queryLocked()
	c.log.Debug("load started", "token", token, "search", q.Search, "sort", q.Sort.String(), "page", q.Page)
	go func() {
		rows, err := provider.Fetch(ctx, q)
		c.finishLoad(token, rows, err)
	}()
}

func (c *Controller) finishLoad(token string, rows []grid.Row, err error) {
	c.mu.Lock()
	if c.closed || token != c.loadToken {
		c.mu.Unlock()
		c.log.Debug("discarding superseded load", "token", token)
		return
	}
	c.loadCancel()
	c.loadCancel = nil
	c.loading = false

	var ev Event
	if err != nil {
		// previous rows stay on screen
		c.loadErr = err
		c.log.Warn("load failed", "token", token, "err", err)
		ev = LoadEvent{Rows: c.model.RowCount(), Err: err}
	} else {
		c.loadErr = nil
		pruned, modelErr := c.replaceRowsLocked(rows)
		c.log.Debug("load finished", "token", token, "rows", len(rows))
		ev = c.loadEventLocked(pruned, modelErr)
	}
	c.checkInvariants()
	c.enqueueLocked(ev)
	c.mu.Unlock()
	c.drain()
}
