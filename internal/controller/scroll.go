package controller

// Scroll moves to an absolute offset, clamped to the scrollable height.
func (c *Controller) Scroll(offset float64) {
	c.update(func() Event {
		return c.scrollLocked(offset)
	})
}

// ScrollBy moves the offset relative to its current value.
func (c *Controller) ScrollBy(delta float64) {
	c.update(func() Event {
		return c.scrollLocked(c.offset + delta)
	})
}

// ScrollToRow brings a logical row fully into view. Rows filtered out or
// unknown are ignored.
func (c *Controller) ScrollToRow(rowID string) {
	c.update(func() Event {
		i := c.indexLocked(rowID)
		if i < 0 {
			return nil
		}
		return c.scrollLocked(c.scroller.OffsetToReveal(i, c.offset, c.viewport))
	})
}

// SetViewport sets the visible height, in the same unit as row heights.
func (c *Controller) SetViewport(size float64) {
	c.update(func() Event {
		size = max(size, 0)
		if size == c.viewport {
			return nil
		}
		c.viewport = size
		return c.rangeEventIf(c.recomputeRange())
	})
}

// SetVirtualization turns windowing on or off. A performance escalation
// keeps it on regardless.
func (c *Controller) SetVirtualization(on bool) {
	c.update(func() Event {
		if on == c.virtualize {
			return nil
		}
		c.virtualize = on
		return c.rangeEventIf(c.recomputeRange())
	})
}

func (c *Controller) scrollLocked(offset float64) Event {
	offset = min(max(offset, 0), c.scroller.MaxOffset(c.viewport))
	if offset == c.offset {
		return nil
	}
	c.offset = offset
	return c.rangeEventIf(c.recomputeRange())
}

func (c *Controller) rangeEventIf(changed bool) Event {
	if !changed {
		return nil
	}
	return RangeChangeEvent{Start: c.rng.Start, End: c.rng.End}
}
