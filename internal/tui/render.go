package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/sorting"
)

const gutter = 2

// View renders the grid. The render is timed and fed back to the controller
// so slow frames can escalate to virtualization.
func (a *App) View() string {
	var out string
	a.ctl.MeasureRender(func() { out = a.render(a.ctl.View()) })
	return out
}

func (a *App) render(v controller.View) string {
	width := a.width
	if width <= 0 {
		width = 80
	}
	cols := a.visibleColumns(v.Columns, width)

	lines := []string{a.renderTitle(v), a.renderHeader(v, cols)}
	lines = append(lines, a.renderBody(v, cols)...)
	lines = append(lines, a.renderStatus(v), a.renderHelp(width))
	return strings.Join(lines, "\n")
}

func (a *App) renderTitle(v controller.View) string {
	name := a.deps.Name
	if name == "" {
		name = "grid"
	}
	parts := []string{titleStyle.Render(name), fmt.Sprintf("%d rows", v.LogicalCount)}
	if n := len(v.Selection); n > 0 {
		parts = append(parts, selectedStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	if len(v.Sort) > 0 {
		parts = append(parts, sortStyle.Render("sort "+v.Sort.String()))
	}
	if v.Search != "" {
		parts = append(parts, infoStyle.Render(fmt.Sprintf("search %q", v.Search)))
	}
	if len(v.Filters) > 0 {
		parts = append(parts, infoStyle.Render(fmt.Sprintf("%d filters", len(v.Filters))))
	}
	if v.Loading {
		parts = append(parts, dimStyle.Render("loading…"))
	}
	if v.Virtualized {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("rows %d-%d", v.Range.Start, v.Range.End)))
	}
	return strings.Join(parts, dimStyle.Render(" · "))
}

func (a *App) renderHeader(v controller.View, cols []int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutter))
	for _, i := range cols {
		c := v.Columns[i]
		title := c.Title
		if title == "" {
			title = c.ID
		}
		if idx := v.Sort.Index(c.ID); idx >= 0 {
			arrow := "▲"
			if v.Sort[idx].Direction == sorting.Desc {
				arrow = "▼"
			}
			if len(v.Sort) > 1 {
				arrow += strconv.Itoa(idx + 1)
			}
			title += arrow
		}
		cell := a.fit(title, colWidth(c), c.Align)
		if i == a.col {
			cell = focusCell.Render(cell)
		} else {
			cell = headerStyle.Render(cell)
		}
		b.WriteString(cell)
		b.WriteByte(' ')
	}
	return b.String()
}

func (a *App) renderBody(v controller.View, cols []int) []string {
	height := a.bodyHeight()
	lines := make([]string, 0, height)

	rowHeight := 1.0
	if v.LogicalCount > 0 && v.TotalHeight > 0 {
		rowHeight = v.TotalHeight / float64(v.LogicalCount)
	}
	first := int(v.ScrollOffset/rowHeight) - v.Range.Start
	first = min(max(first, 0), len(v.Rows))

	selected := make(map[string]bool, len(v.Selection))
	for _, id := range v.Selection {
		selected[id] = true
	}
	for _, r := range v.Rows[first:] {
		if len(lines) == height {
			break
		}
		lines = append(lines, a.renderRow(v, cols, r, selected[r.ID]))
	}
	if len(lines) == 0 {
		msg := "no rows"
		switch {
		case v.ModelErr != nil:
			msg = v.ModelErr.Error()
		case v.Loading:
			msg = "loading…"
		}
		lines = append(lines, dimStyle.Render(strings.Repeat(" ", gutter)+msg))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (a *App) renderRow(v controller.View, cols []int, r grid.Row, selected bool) string {
	focused := r.ID == v.FocusedID
	var b strings.Builder
	switch {
	case r.Disabled:
		b.WriteString(dimStyle.Render("⊘ "))
	case selected:
		b.WriteString(selectedStyle.Render("● "))
	default:
		b.WriteString(strings.Repeat(" ", gutter))
	}
	for _, i := range cols {
		c := v.Columns[i]
		inEdit := v.Edit != nil && v.Edit.RowID == r.ID && v.Edit.ColumnID == c.ID
		var cell string
		if inEdit && a.mode == modeEdit {
			cell = editStyle.Render(a.fit(a.input.Value()+"▏", colWidth(c), grid.AlignLeft))
		} else {
			cell = a.fit(formatCell(c, c.Value(r), a.deps.DateFormat), colWidth(c), c.Align)
			switch {
			case r.Disabled:
				cell = disabledStyle.Render(cell)
			case focused && i == a.col:
				cell = focusCell.Render(cell)
			case focused:
				cell = focusRowStyle.Render(cell)
			case selected:
				cell = selectedStyle.Render(cell)
			}
		}
		b.WriteString(cell)
		b.WriteByte(' ')
	}
	return b.String()
}

func (a *App) renderStatus(v controller.View) string {
	switch a.mode {
	case modeSearch:
		return infoStyle.Render("search: ") + a.input.View()
	case modeFilter:
		name := ""
		if c, ok := a.focusedColumn(v); ok {
			name = c.Title
		}
		return infoStyle.Render(fmt.Sprintf("filter %s (>= <= > < = ~ ^ $, comma joins): ", name)) + a.input.View()
	}
	if v.Edit != nil && len(v.Edit.Errors) > 0 {
		return errorStyle.Render(strings.Join(v.Edit.Errors, "; "))
	}
	if a.err != nil {
		return errorStyle.Render(a.err.Error())
	}
	if v.LoadErr != nil {
		return errorStyle.Render("load failed: " + v.LoadErr.Error())
	}
	return dimStyle.Render(a.status)
}

func (a *App) renderHelp(width int) string {
	var parts []string
	used := 0
	for _, b := range a.keys.HelpBindings(string(a.mode)) {
		part := helpEntry(b)
		w := lipgloss.Width(part) + 2
		if used+w > width {
			break
		}
		parts = append(parts, part)
		used += w
	}
	return strings.Join(parts, "  ")
}

func helpEntry(b key.Binding) string {
	h := b.Help()
	return helpKeyStyle.Render(h.Key) + " " + helpDescStyle.Render(h.Desc)
}

// visibleColumns returns the indexes of the columns that fit in width,
// scrolled so the focused column is on screen.
func (a *App) visibleColumns(cols []grid.Column, total int) []int {
	if len(cols) == 0 {
		return nil
	}
	focus := min(max(a.col, 0), len(cols)-1)
	start := 0
	for {
		used := gutter
		for i := start; i <= focus; i++ {
			used += colWidth(cols[i]) + 1
		}
		if used <= total || start == focus {
			break
		}
		start++
	}
	var out []int
	used := gutter
	for i := start; i < len(cols); i++ {
		w := colWidth(cols[i]) + 1
		if used+w > total && len(out) > 0 {
			break
		}
		out = append(out, i)
		used += w
	}
	return out
}

func colWidth(c grid.Column) int {
	w := c.ClampWidth(c.Width)
	if w <= 0 {
		w = max(ansi.StringWidth(c.Title), 8)
	}
	return w
}

// fit truncates or pads s to exactly w terminal cells. Escape sequences do
// not count towards the width.
func (a *App) fit(s string, w int, align grid.Align) string {
	if w <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) > w {
		s = ansi.Truncate(s, w, a.deps.Truncation)
	}
	pad := max(w-ansi.StringWidth(s), 0)
	switch align {
	case grid.AlignRight:
		return strings.Repeat(" ", pad) + s
	case grid.AlignCenter:
		return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
	}
	return s + strings.Repeat(" ", pad)
}

func formatCell(c grid.Column, v any, dateFormat string) string {
	if v == nil {
		return ""
	}
	switch c.Type {
	case grid.TypeCurrency:
		if n, ok := grid.ParseNumber(v); ok {
			return formatMoney(n)
		}
	case grid.TypePercentage:
		if n, ok := grid.ParseNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64) + "%"
		}
	case grid.TypeNumber:
		if n, ok := grid.ParseNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	case grid.TypeBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return "✓"
			}
			return "·"
		}
	case grid.TypeDate:
		switch t := v.(type) {
		case time.Time:
			return t.Format(dateFormat)
		case string:
			if parsed, err := time.Parse(time.DateOnly, t); err == nil {
				return parsed.Format(dateFormat)
			}
		}
	}
	return grid.Stringify(v)
}

func formatMoney(n float64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := strconv.FormatFloat(n, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
