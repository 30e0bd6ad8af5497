package controller

import (
	"fmt"

	"github.com/jask/gridcore/internal/editing"
)

// BeginEdit opens an edit session on a cell. It returns editing.ErrUnavailable
// when the grid is read-only, the cell does not exist or the column has no
// editor. Opening a second cell abandons the first without a CellEditEvent.
func (c *Controller) BeginEdit(rowID, columnID string) error {
	err := ErrClosed
	c.update(func() Event {
		err = nil
		if !c.opts.Editable {
			err = editing.ErrUnavailable
			return nil
		}
		row, ok := c.model.Row(rowID)
		if !ok {
			err = fmt.Errorf("%w: unknown row %q", editing.ErrUnavailable, rowID)
			return nil
		}
		col, ok := c.model.Column(columnID)
		if !ok {
			err = fmt.Errorf("%w: unknown column %q", editing.ErrUnavailable, columnID)
			return nil
		}
		if c.edit.Is(rowID, columnID) {
			return nil
		}
		var prev *editing.Session
		prev, err = c.edit.Begin(editing.Target{
			RowID:    rowID,
			Column:   col,
			Original: col.Value(row),
			Row:      row.Data,
		})
		if err != nil {
			return nil
		}
		if prev != nil {
			c.log.Debug("edit abandoned", "row", prev.RowID, "column", prev.ColumnID)
		}
		s, _ := c.edit.Active()
		return EditStateEvent{Session: s}
	})
	return err
}

// UpdateEdit sets the pending value and returns the revalidated session.
func (c *Controller) UpdateEdit(value any) (editing.Session, error) {
	var (
		s   editing.Session
		err = ErrClosed
	)
	c.update(func() Event {
		s, err = c.edit.Update(value)
		if err != nil {
			return nil
		}
		return EditStateEvent{Session: s}
	})
	return s, err
}

// CommitEdit writes a valid pending value into the row and publishes a
// CellEditEvent. With validation errors nothing is written, the session
// stays open and an error wrapping editing.ErrValidation is returned.
func (c *Controller) CommitEdit() error {
	err := ErrClosed
	c.update(func() Event {
		s, ok := c.edit.Active()
		if !ok {
			err = editing.ErrNoSession
			return nil
		}
		col, ok := c.model.Column(s.ColumnID)
		if !ok || !c.model.Has(s.RowID) {
			c.edit.Discard()
			err = fmt.Errorf("%w: cell no longer exists", editing.ErrUnavailable)
			return nil
		}
		var res editing.Result
		res, err = c.edit.Commit()
		if err != nil {
			return nil
		}
		c.model.SetCell(res.RowID, col.Field, res.New)
		c.refresh()
		return CellEditEvent{RowID: res.RowID, ColumnID: res.ColumnID, OldValue: res.Old, NewValue: res.New}
	})
	return err
}

// DiscardEdit abandons the open session, if any. Nothing is published.
func (c *Controller) DiscardEdit() bool {
	var ok bool
	c.update(func() Event {
		_, ok = c.edit.Discard()
		return nil
	})
	return ok
}
