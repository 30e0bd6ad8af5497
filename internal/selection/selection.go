// Package selection tracks selected row ids and keyboard focus.
package selection

import "slices"

type Mode string

const (
	None     Mode = "none"
	Single   Mode = "single"
	Multiple Mode = "multiple"
)

// ParseMode maps config strings onto a Mode; unknown values yield None.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case Single, Multiple:
		return Mode(s)
	}
	return None
}

// Manager holds the selected ids in the order they were selected. Every
// mutating method reports whether the set changed; callers publish the
// change themselves.
type Manager struct {
	mode     Mode
	max      int
	ids      []string
	set      map[string]bool
	focused  string
	anchor   string
	disabled func(id string) bool
}

// New creates a manager. maxSelections caps the selection in multiple mode (0 = no cap).
func New(mode Mode, maxSelections int) *Manager {
	return &Manager{mode: mode, max: maxSelections, set: map[string]bool{}}
}

// SetDisabled installs the predicate deciding which rows can never be selected.
func (m *Manager) SetDisabled(fn func(id string) bool) {
	m.disabled = fn
}

func (m *Manager) isDisabled(id string) bool {
	return m.disabled != nil && m.disabled(id)
}

func (m *Manager) Mode() Mode { return m.mode }

// Selected returns a copy of the selected ids in selection order.
func (m *Manager) Selected() []string {
	return slices.Clone(m.ids)
}

func (m *Manager) IsSelected(id string) bool { return m.set[id] }

func (m *Manager) Len() int { return len(m.ids) }

func (m *Manager) Focused() string { return m.focused }

// Toggle flips id. In single mode the set becomes {id}, or empty when id was
// already the only selection.
func (m *Manager) Toggle(id string) bool {
	if id == "" || m.mode == None || m.isDisabled(id) {
		return false
	}
	switch m.mode {
	case Single:
		if len(m.ids) == 1 && m.ids[0] == id {
			m.reset()
			return true
		}
		m.reset()
		m.add(id)
		m.anchor = id
		return true
	default:
		if m.set[id] {
			m.remove(id)
			return true
		}
		if m.full() {
			return false
		}
		m.add(id)
		m.anchor = id
		return true
	}
}

// SelectAll adds every enabled id from visible, up to the cap. Ids not in
// visible are never added. Only meaningful in multiple mode.
func (m *Manager) SelectAll(visible []string) bool {
	if m.mode != Multiple {
		return false
	}
	changed := false
	for _, id := range visible {
		if id == "" || m.set[id] || m.isDisabled(id) {
			continue
		}
		if m.full() {
			break
		}
		m.add(id)
		changed = true
	}
	return changed
}

// Clear empties the selection.
func (m *Manager) Clear() bool {
	if len(m.ids) == 0 {
		return false
	}
	m.reset()
	return true
}

// SetMode switches mode. Going to single keeps the earliest selection,
// going to none clears it.
func (m *Manager) SetMode(mode Mode) bool {
	if mode == m.mode {
		return false
	}
	m.mode = mode
	switch mode {
	case None:
		m.reset()
		m.focused = ""
	case Single:
		if len(m.ids) > 1 {
			keep := m.ids[0]
			m.reset()
			m.add(keep)
		}
	}
	return true
}

// Prune drops selected ids for which keep returns false. Focus is dropped too.
func (m *Manager) Prune(keep func(id string) bool) bool {
	if m.focused != "" && !keep(m.focused) {
		m.focused = ""
	}
	if m.anchor != "" && !keep(m.anchor) {
		m.anchor = ""
	}
	before := len(m.ids)
	m.ids = slices.DeleteFunc(m.ids, func(id string) bool {
		if keep(id) {
			return false
		}
		delete(m.set, id)
		return true
	})
	return len(m.ids) != before
}

// SetFocus moves focus to id without touching the selection.
func (m *Manager) SetFocus(id string) bool {
	if id == m.focused || (id != "" && m.isDisabled(id)) {
		return false
	}
	m.focused = id
	return true
}

// MoveFocus steps the focus delta positions through the enabled ids of order
// and returns the new focused id. The result is clamped to the first and last
// enabled id. With no current focus, a forward move lands on the first
// enabled id and a backward move on the last.
func (m *Manager) MoveFocus(order []string, delta int) string {
	enabled := make([]string, 0, len(order))
	for _, id := range order {
		if !m.isDisabled(id) {
			enabled = append(enabled, id)
		}
	}
	if len(enabled) == 0 {
		m.focused = ""
		return ""
	}
	cur := slices.Index(enabled, m.focused)
	var next int
	switch {
	case cur < 0 && delta >= 0:
		next = 0
	case cur < 0:
		next = len(enabled) - 1
	default:
		next = min(max(cur+delta, 0), len(enabled)-1)
	}
	m.focused = enabled[next]
	return m.focused
}

// ExtendTo selects the contiguous run of order between the anchor (the last
// toggled id, or the focus) and id. Multiple mode only; disabled rows in the
// run are skipped and the cap still applies.
func (m *Manager) ExtendTo(order []string, id string) bool {
	if m.mode != Multiple {
		return false
	}
	anchor := m.anchor
	if anchor == "" {
		anchor = m.focused
	}
	to := slices.Index(order, id)
	from := slices.Index(order, anchor)
	if to < 0 {
		return false
	}
	if from < 0 {
		from = to
	}
	lo, hi := min(from, to), max(from, to)
	changed := false
	for _, rid := range order[lo : hi+1] {
		if m.set[rid] || m.isDisabled(rid) {
			continue
		}
		if m.full() {
			break
		}
		m.add(rid)
		changed = true
	}
	m.focused = id
	return changed
}

func (m *Manager) full() bool {
	return m.max > 0 && len(m.ids) >= m.max
}

func (m *Manager) add(id string) {
	m.ids = append(m.ids, id)
	m.set[id] = true
}

func (m *Manager) remove(id string) {
	delete(m.set, id)
	if i := slices.Index(m.ids, id); i >= 0 {
		m.ids = slices.Delete(m.ids, i, i+1)
	}
}

func (m *Manager) reset() {
	m.ids = nil
	clear(m.set)
}
