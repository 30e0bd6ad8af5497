package controller

import (
	"github.com/jask/gridcore/internal/selection"
)

// checkInvariants runs after every mutation with mu held. A violation is a
// bug in this package, never a user input problem.
func (c *Controller) checkInvariants() {
	total := len(c.logical)
	if !c.rng.Valid(total) {
		invariantFailed(c.log, "visible range out of bounds", "start", c.rng.Start, "end", c.rng.End, "total", total)
	}
	ids := c.sel.Selected()
	if c.sel.Mode() == selection.Single && len(ids) > 1 {
		invariantFailed(c.log, "single selection holds several rows", "selected", len(ids))
	}
	if c.sel.Mode() == selection.None && len(ids) > 0 {
		invariantFailed(c.log, "selection mode none holds rows", "selected", len(ids))
	}
	if c.opts.MaxSelections > 0 && len(ids) > c.opts.MaxSelections {
		invariantFailed(c.log, "selection above cap", "selected", len(ids), "max", c.opts.MaxSelections)
	}
	for _, id := range ids {
		if !c.model.Has(id) {
			invariantFailed(c.log, "selected row missing from model", "row", id)
		}
		if c.model.Disabled(id) {
			invariantFailed(c.log, "disabled row selected", "row", id)
		}
	}
	if s, ok := c.edit.Active(); ok {
		if !c.model.Has(s.RowID) {
			invariantFailed(c.log, "edit session on missing row", "row", s.RowID)
		}
		if _, ok := c.model.Column(s.ColumnID); !ok {
			invariantFailed(c.log, "edit session on missing column", "column", s.ColumnID)
		}
	}
}
