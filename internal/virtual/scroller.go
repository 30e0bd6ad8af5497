// Package virtual maps a scroll position onto the window of rows that needs
// to be materialized.
package virtual

import (
	"math"
	"sort"
)

// Range is a half-open interval [Start, End) into the logical row list.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Valid reports 0 <= Start <= End <= total.
func (r Range) Valid(total int) bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= total
}

// ComputeRange is the fixed-height window: the rows covering the viewport,
// overscan rows before it and twice the overscan after it, clamped to
// [0, totalRows]. A non-positive row height renders everything.
//
// The written contract says end = first + visible + overscan, but its worked
// example (1000 rows of 40, viewport 400, overscan 5, offset 2000) expects
// [45, 70), which needs 2*overscan on the trailing side. The two disagree;
// this follows the example, and TestComputeRangeWorkedExample pins it.
func ComputeRange(scrollOffset, viewportSize, rowHeight float64, totalRows, overscan int) Range {
	if totalRows <= 0 {
		return Range{}
	}
	if rowHeight <= 0 {
		return Range{0, totalRows}
	}
	scrollOffset = max(scrollOffset, 0)
	viewportSize = max(viewportSize, 0)
	overscan = max(overscan, 0)

	first := int(math.Floor(scrollOffset / rowHeight))
	visible := int(math.Ceil(viewportSize / rowHeight))
	end := min(totalRows, first+visible+2*overscan)
	start := min(max(0, first-overscan), end)
	return Range{start, end}
}

// Scroller computes visible ranges for either fixed or per-index row heights.
// Per-index heights are summed once into a prefix table, rebuilt only when
// the row count changes or Invalidate is called, so lookups are O(log n).
type Scroller struct {
	rowHeight float64
	heightFn  func(i int) float64
	overscan  int
	total     int
	disabled  bool

	prefix []float64 // prefix[i] = sum of heights of rows [0, i)
	stale  bool
}

// NewFixed creates a scroller where every row is rowHeight tall.
func NewFixed(rowHeight float64, overscan int) *Scroller {
	return &Scroller{rowHeight: rowHeight, overscan: max(overscan, 0)}
}

// NewVariable creates a scroller asking heightFn for each row's height.
func NewVariable(heightFn func(i int) float64, overscan int) *Scroller {
	return &Scroller{heightFn: heightFn, overscan: max(overscan, 0), stale: true}
}

func (s *Scroller) variable() bool { return s.heightFn != nil }

// SetTotal updates the logical row count.
func (s *Scroller) SetTotal(n int) {
	n = max(n, 0)
	if n == s.total {
		return
	}
	s.total = n
	s.stale = true
}

func (s *Scroller) Total() int { return s.total }

// Invalidate drops the cached prefix sums, e.g. after row heights changed.
func (s *Scroller) Invalidate() { s.stale = true }

// SetEnabled turns windowing on or off. Disabled means every row is in range.
func (s *Scroller) SetEnabled(on bool) { s.disabled = !on }

func (s *Scroller) Enabled() bool { return !s.disabled }

func (s *Scroller) SetOverscan(n int) { s.overscan = max(n, 0) }

func (s *Scroller) Overscan() int { return s.overscan }

func (s *Scroller) ensurePrefix() {
	if !s.variable() || !s.stale {
		return
	}
	if cap(s.prefix) < s.total+1 {
		s.prefix = make([]float64, s.total+1)
	} else {
		s.prefix = s.prefix[:s.total+1]
	}
	s.prefix[0] = 0
	for i := 0; i < s.total; i++ {
		s.prefix[i+1] = s.prefix[i] + max(s.heightFn(i), 0)
	}
	s.stale = false
}

// Offset returns the distance from the top of row 0 to the top of row i.
func (s *Scroller) Offset(i int) float64 {
	i = min(max(i, 0), s.total)
	if !s.variable() {
		return float64(i) * s.rowHeight
	}
	s.ensurePrefix()
	return s.prefix[i]
}

// Height returns the height of row i.
func (s *Scroller) Height(i int) float64 {
	if i < 0 || i >= s.total {
		return 0
	}
	return s.Offset(i+1) - s.Offset(i)
}

// TotalHeight is the full scrollable height.
func (s *Scroller) TotalHeight() float64 {
	return s.Offset(s.total)
}

// MaxOffset is the largest useful scroll offset for a viewport.
func (s *Scroller) MaxOffset(viewport float64) float64 {
	return max(s.TotalHeight()-viewport, 0)
}

// IndexAt returns the row containing offset, or Total() past the end.
func (s *Scroller) IndexAt(offset float64) int {
	offset = max(offset, 0)
	if !s.variable() {
		if s.rowHeight <= 0 {
			return 0
		}
		return min(int(math.Floor(offset/s.rowHeight)), s.total)
	}
	s.ensurePrefix()
	return sort.Search(s.total, func(i int) bool { return s.prefix[i+1] > offset })
}

// Range returns the rows to materialize for the scroll position.
func (s *Scroller) Range(offset, viewport float64) Range {
	if s.disabled {
		return Range{0, s.total}
	}
	if !s.variable() {
		return ComputeRange(offset, viewport, s.rowHeight, s.total, s.overscan)
	}
	if s.total == 0 {
		return Range{}
	}
	s.ensurePrefix()
	offset = max(offset, 0)
	bottom := offset + max(viewport, 0)
	first := s.IndexAt(offset)
	last := sort.Search(s.total, func(i int) bool { return s.prefix[i] >= bottom })
	end := min(s.total, max(last, first)+2*s.overscan)
	start := min(max(0, first-s.overscan), end)
	return Range{start, end}
}

// Spacers returns the blank space a renderer reserves before and after r so
// the scroll position stays correct.
func (s *Scroller) Spacers(r Range) (before, after float64) {
	before = s.Offset(r.Start)
	after = s.TotalHeight() - s.Offset(r.End)
	return before, after
}

// OffsetToReveal returns the smallest change to offset that brings row i
// fully into the viewport.
func (s *Scroller) OffsetToReveal(i int, offset, viewport float64) float64 {
	if i < 0 || i >= s.total {
		return offset
	}
	top := s.Offset(i)
	bottom := top + s.Height(i)
	switch {
	case top < offset:
		return top
	case bottom > offset+viewport:
		return max(bottom-viewport, 0)
	}
	return offset
}
