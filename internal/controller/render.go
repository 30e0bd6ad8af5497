package controller

import (
	"slices"
	"time"

	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
)

// RecordRender feeds one render duration to the performance monitor. When
// the monitor escalates, virtualization and animation suppression follow.
func (c *Controller) RecordRender(d time.Duration) {
	c.update(func() Event {
		esc := c.perf.Record(d, len(c.logical))
		if esc == c.escalation {
			return nil
		}
		c.log.Info("render budget exceeded, escalating",
			"duration", d, "budget", c.perf.Budget(), "virtualize", esc.Virtualize, "suppressAnimations", esc.SuppressAnimations)
		c.escalation = esc
		c.recomputeRange()
		return PerformanceEvent{Escalation: esc, Stats: c.perf.Stats()}
	})
}

// MeasureRender times fn and records the result. fn runs without the
// controller lock held, so it may call View.
func (c *Controller) MeasureRender(fn func()) time.Duration {
	d := c.perf.Measure(fn)
	c.RecordRender(d)
	return d
}

// ResetPerformance returns the monitor to its starting state. Escalation is
// never undone automatically.
func (c *Controller) ResetPerformance() {
	c.update(func() Event {
		c.perf.Reset()
		esc := c.perf.Escalation()
		if esc == c.escalation {
			return nil
		}
		c.escalation = esc
		c.recomputeRange()
		return PerformanceEvent{Escalation: esc, Stats: c.perf.Stats()}
	})
}

// SetPerformanceMode switches the monitor mode, which also resets it.
func (c *Controller) SetPerformanceMode(mode perf.Mode) {
	c.update(func() Event {
		if mode == c.perf.Mode() {
			return nil
		}
		c.perf.SetMode(mode)
		c.escalation = c.perf.Escalation()
		c.recomputeRange()
		return PerformanceEvent{Escalation: c.escalation, Stats: c.perf.Stats()}
	})
}

// RequestExport publishes the rows to export: the selected rows in load
// order when anything is selected, otherwise every logical row in display
// order. The same rows are returned.
func (c *Controller) RequestExport(format string) []grid.Row {
	var rows []grid.Row
	c.update(func() Event {
		if c.sel.Len() > 0 {
			for _, r := range c.model.Rows() {
				if c.sel.IsSelected(r.ID) {
					rows = append(rows, r.Clone())
				}
			}
		} else {
			rows = make([]grid.Row, 0, len(c.logical))
			for _, r := range c.logical {
				rows = append(rows, r.Clone())
			}
		}
		return ExportRequestEvent{Rows: slices.Clone(rows), Columns: c.model.Columns(), Format: format}
	})
	return rows
}
