package controller

import (
	"github.com/jask/gridcore/internal/selection"
)

// ToggleSelection flips a row's selection. Unknown rows are ignored.
func (c *Controller) ToggleSelection(rowID string) {
	c.update(func() Event {
		if !c.model.Has(rowID) || !c.sel.Toggle(rowID) {
			return nil
		}
		return c.selectionEventLocked()
	})
}

// SelectAll selects every row currently in the logical list. Rows hidden by
// filters are never selected.
func (c *Controller) SelectAll() {
	c.update(func() Event {
		if !c.sel.SelectAll(c.logicalIDsLocked()) {
			return nil
		}
		return c.selectionEventLocked()
	})
}

func (c *Controller) ClearSelection() {
	c.update(func() Event {
		if !c.sel.Clear() {
			return nil
		}
		return c.selectionEventLocked()
	})
}

func (c *Controller) SetSelectionMode(mode selection.Mode) {
	c.update(func() Event {
		before := len(c.sel.Selected())
		if !c.sel.SetMode(mode) || before == c.sel.Len() {
			return nil
		}
		return c.selectionEventLocked()
	})
}

// ExtendSelection selects the run of logical rows between the anchor and
// rowID, as shift-click does.
func (c *Controller) ExtendSelection(rowID string) {
	c.update(func() Event {
		if !c.sel.ExtendTo(c.logicalIDsLocked(), rowID) {
			return nil
		}
		return c.selectionEventLocked()
	})
}

// MoveFocus moves keyboard focus by delta rows through the enabled logical
// rows and scrolls the focused row into view.
func (c *Controller) MoveFocus(delta int) {
	c.update(func() Event {
		before := c.sel.Focused()
		id := c.sel.MoveFocus(c.logicalIDsLocked(), delta)
		if id == before {
			return nil
		}
		if i := c.indexLocked(id); i >= 0 {
			c.offset = c.scroller.OffsetToReveal(i, c.offset, c.viewport)
			c.recomputeRange()
		}
		return FocusChangeEvent{FocusedID: id}
	})
}

// SetFocus focuses a specific row without moving the scroll position.
func (c *Controller) SetFocus(rowID string) {
	c.update(func() Event {
		if rowID != "" && !c.model.Has(rowID) {
			return nil
		}
		if !c.sel.SetFocus(rowID) {
			return nil
		}
		return FocusChangeEvent{FocusedID: rowID}
	})
}

func (c *Controller) selectionEventLocked() Event {
	return SelectionChangeEvent{SelectedIDs: c.sel.Selected()}
}
