package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/editing"
	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/prefs"
	"github.com/jask/gridcore/internal/service"
)

// chrome is the number of lines around the row body: title, column header,
// status and help.
const chrome = 4

// App renders a controller in the terminal and turns key presses into
// controller gestures.
type App struct {
	ctx    context.Context
	ctl    *controller.Controller
	deps   Deps
	keys   *KeyRegistry
	log    *slog.Logger
	events *eventQueue
	unsub  func()

	mode   inputMode
	input  textinput.Model
	col    int
	width  int
	height int
	status string
	err    error
}

// Deps are the optional collaborators behind persistence and export.
type Deps struct {
	Name       string
	Provider   *service.Provider
	Exporter   service.Exporter
	ExportDir  string
	DateFormat string
	Truncation string
	Logger     *slog.Logger
	// Layouts, when set, receives the view layout of DatasetID on quit.
	Layouts    *prefs.Store
	DatasetID  string
}

type inputMode string

const (
	modeGrid   inputMode = scopeGrid
	modeSearch inputMode = scopeSearch
	modeFilter inputMode = scopeFilter
	modeEdit   inputMode = scopeEdit
)

type eventsMsg []controller.Event

type statusMsg string

type errMsg struct{ error }

func New(ctx context.Context, ctl *controller.Controller, deps Deps) *App {
	if deps.DateFormat == "" {
		deps.DateFormat = editing.DateLayout
	}
	if deps.Truncation == "" {
		deps.Truncation = "…"
	}
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	in := textinput.New()
	in.Prompt = ""
	a := &App{
		ctx:    ctx,
		ctl:    ctl,
		deps:   deps,
		keys:   NewKeyRegistry(),
		log:    deps.Logger,
		events: newEventQueue(),
		mode:   modeGrid,
		input:  in,
	}
	a.unsub = ctl.Subscribe(a.events.push)
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.events.wait(a.ctx)}
	if a.deps.Provider != nil {
		cmds = append(cmds, func() tea.Msg {
			if err := a.ctl.LoadNow(); err != nil {
				return errMsg{err}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.ctl.SetViewport(float64(a.bodyHeight()))
		return a, nil
	case eventsMsg:
		var cmds []tea.Cmd
		for _, ev := range m {
			if cmd := a.handleEvent(ev); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		cmds = append(cmds, a.events.wait(a.ctx))
		return a, tea.Batch(cmds...)
	case statusMsg:
		a.status, a.err = string(m), nil
		return a, nil
	case errMsg:
		a.err = m.error
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

// handleEvent reacts to one controller notification. Views are rebuilt from
// the controller on every render, so most events only touch the status line.
func (a *App) handleEvent(ev controller.Event) tea.Cmd {
	switch e := ev.(type) {
	case controller.CellEditEvent:
		a.status = fmt.Sprintf("%s.%s updated", e.RowID, e.ColumnID)
		return a.persistCmd(e)
	case controller.ExportRequestEvent:
		return a.exportCmd(e)
	case controller.LoadEvent:
		if e.Err != nil {
			a.err = fmt.Errorf("load: %w", e.Err)
			return nil
		}
		a.err = nil
		a.status = fmt.Sprintf("loaded %d rows", e.Rows)
	case controller.ColumnsChangeEvent:
		if e.Err != nil {
			a.err = e.Err
		}
		a.col = min(a.col, max(len(e.Columns)-1, 0))
	case controller.PerformanceEvent:
		a.status = fmt.Sprintf("render %s over budget: virtualize=%t", e.Stats.Last.Round(time.Microsecond), e.Escalation.Virtualize)
	case controller.FilterChangeEvent:
		a.status = fmt.Sprintf("%d filters", len(e.Filters))
	}
	return nil
}

func (a *App) persistCmd(e controller.CellEditEvent) tea.Cmd {
	if a.deps.Provider == nil {
		return nil
	}
	field := e.ColumnID
	for _, c := range a.ctl.View().Columns {
		if c.ID == e.ColumnID {
			field = c.Field
			break
		}
	}
	return func() tea.Msg {
		if err := a.deps.Provider.Apply(a.ctx, e, field); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (a *App) exportCmd(e controller.ExportRequestEvent) tea.Cmd {
	name := a.deps.Name
	if name == "" {
		name = "export"
	}
	name = fmt.Sprintf("%s-%s", strings.ReplaceAll(strings.ToLower(name), " ", "-"), time.Now().Format("20060102-150405"))
	return func() tea.Msg {
		path, err := a.deps.Exporter.WriteFile(a.deps.ExportDir, name, e)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("exported %d rows to %s", len(e.Rows), path))
	}
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode != modeGrid {
		return a.handleInputKey(m)
	}
	v := a.ctl.View()
	page := max(a.bodyHeight()-1, 1)
	switch a.keys.Lookup(m, scopeGrid) {
	case actionQuit:
		return a, a.quit()
	case actionUp:
		a.ctl.MoveFocus(-1)
	case actionDown:
		a.ctl.MoveFocus(1)
	case actionPageUp:
		a.ctl.MoveFocus(-page)
	case actionPageDown:
		a.ctl.MoveFocus(page)
	case actionTop:
		a.ctl.MoveFocus(-v.LogicalCount)
	case actionBottom:
		a.ctl.MoveFocus(v.LogicalCount)
	case actionLeft:
		a.col = max(a.col-1, 0)
	case actionRight:
		a.col = min(a.col+1, max(len(v.Columns)-1, 0))
	case actionExtendUp, actionExtendDown:
		delta := 1
		if a.keys.Lookup(m, scopeGrid) == actionExtendUp {
			delta = -1
		}
		a.ctl.MoveFocus(delta)
		if id := a.ctl.View().FocusedID; id != "" {
			a.ctl.ExtendSelection(id)
		}
	case actionSort:
		if c, ok := a.focusedColumn(v); ok {
			a.ctl.ToggleSort(c.ID)
		}
	case actionSearch:
		a.openInput(modeSearch, v.PendingSearch)
	case actionFilter:
		if c, ok := a.focusedColumn(v); ok && c.Filterable {
			a.openInput(modeFilter, filterText(v.Filters, c.ID))
		}
	case actionClearFilters:
		a.ctl.ClearFilters()
	case actionToggleSelect:
		a.ctl.ToggleSelection(v.FocusedID)
	case actionSelectAll:
		a.ctl.SelectAll()
	case actionClearSel:
		a.ctl.ClearSelection()
	case actionEdit:
		a.beginEdit(v)
	case actionExportCSV:
		a.ctl.RequestExport(service.FormatCSV)
	case actionExportJSON:
		a.ctl.RequestExport(service.FormatJSON)
	case actionPerfMode:
		next := nextPerfMode(v.PerformanceMode)
		a.ctl.SetPerformanceMode(next)
		a.status = "performance mode: " + string(next)
	case actionVirtualize:
		a.ctl.SetVirtualization(!v.Virtualize)
	case actionReload:
		if err := a.ctl.Load(); err != nil {
			a.err = err
		}
	}
	return a, nil
}

func (a *App) handleInputKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Lookup(m, string(a.mode)) {
	case actionQuit:
		return a, a.quit()
	case actionConfirm:
		a.confirmInput()
		return a, nil
	case actionCancel:
		a.cancelInput()
		return a, nil
	}
	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	if after := a.input.Value(); after != before {
		switch a.mode {
		case modeSearch:
			a.ctl.SetSearch(after)
		case modeEdit:
			if s, err := a.ctl.UpdateEdit(after); err == nil {
				a.err = sessionErr(s)
			}
		}
	}
	return a, cmd
}

func (a *App) confirmInput() {
	value := a.input.Value()
	switch a.mode {
	case modeSearch:
		a.ctl.FlushSearch()
	case modeFilter:
		v := a.ctl.View()
		if c, ok := a.focusedColumn(v); ok {
			if f, ok := parseFilter(c, value); ok {
				a.ctl.SetFilter(f)
			} else {
				a.ctl.RemoveFilter(c.ID)
			}
		}
	case modeEdit:
		if _, err := a.ctl.UpdateEdit(value); err != nil {
			a.err = err
			return
		}
		if err := a.ctl.CommitEdit(); err != nil {
			if errors.Is(err, editing.ErrValidation) {
				if v := a.ctl.View(); v.Edit != nil {
					a.err = sessionErr(*v.Edit)
				}
				return
			}
			a.err = err
		}
	}
	a.closeInput()
}

func (a *App) cancelInput() {
	switch a.mode {
	case modeSearch:
		a.ctl.SetSearch("")
		a.ctl.FlushSearch()
	case modeEdit:
		a.ctl.DiscardEdit()
		a.err = nil
	}
	a.closeInput()
}

func (a *App) beginEdit(v controller.View) {
	c, ok := a.focusedColumn(v)
	if !ok || v.FocusedID == "" {
		return
	}
	if err := a.ctl.BeginEdit(v.FocusedID, c.ID); err != nil {
		a.err = err
		return
	}
	s := a.ctl.View().Edit
	if s == nil {
		return
	}
	a.openInput(modeEdit, editText(s.Pending, a.deps.DateFormat))
}

func (a *App) openInput(mode inputMode, value string) {
	a.mode = mode
	a.input.SetValue(value)
	a.input.CursorEnd()
	a.input.Focus()
}

func (a *App) closeInput() {
	a.mode = modeGrid
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) quit() tea.Cmd {
	if a.unsub != nil {
		a.unsub()
	}
	if a.deps.Layouts != nil && a.deps.DatasetID != "" {
		if err := a.deps.Layouts.Save(a.deps.DatasetID, prefs.Capture(a.ctl.View())); err != nil {
			a.log.Warn("save layout", "dataset", a.deps.DatasetID, "err", err)
		}
	}
	a.ctl.Close()
	return tea.Quit
}

func (a *App) bodyHeight() int {
	return max(a.height-chrome, 1)
}

func (a *App) focusedColumn(v controller.View) (grid.Column, bool) {
	if a.col < 0 || a.col >= len(v.Columns) {
		return grid.Column{}, false
	}
	return v.Columns[a.col], true
}

func nextPerfMode(m perf.Mode) perf.Mode {
	switch m {
	case perf.Standard:
		return perf.Performance
	case perf.Performance:
		return perf.Auto
	}
	return perf.Standard
}

func sessionErr(s editing.Session) error {
	if len(s.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(s.Errors, "; "))
}

func editText(v any, dateFormat string) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(dateFormat)
	}
	return grid.Stringify(v)
}

var filterPrefixes = []struct {
	prefix string
	op     filtering.Operator
}{
	{">=", filtering.GreaterEq},
	{"<=", filtering.LessEq},
	{">", filtering.Greater},
	{"<", filtering.Less},
	{"=", filtering.Equals},
	{"~", filtering.Similar},
	{"^", filtering.StartsWith},
	{"$", filtering.EndsWith},
}

// parseFilter reads "op value" where op is a symbol (">=", "~", ...) or an
// operator name. A bare value means contains. Empty input clears.
func parseFilter(c grid.Column, text string) (filtering.Filter, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return filtering.Filter{}, false
	}
	op := filtering.Contains
	rest := text
	matched := false
	for _, p := range filterPrefixes {
		if strings.HasPrefix(text, p.prefix) {
			op, rest, matched = p.op, strings.TrimSpace(text[len(p.prefix):]), true
			break
		}
	}
	if !matched {
		if name, value, ok := strings.Cut(text, " "); ok {
			if parsed, ok := filtering.ParseOperator(name); ok {
				op, rest = parsed, strings.TrimSpace(value)
			}
		}
	}
	var value any = rest
	if c.Type.Numeric() {
		if f, err := strconv.ParseFloat(rest, 64); err == nil {
			value = f
		}
	}
	return filtering.Filter{ColumnID: c.ID, Operator: op, Value: value}, true
}

// parseFilters reads a comma separated list of filters for one column, so
// "> 20, < 40" is a range.
func parseFilters(c grid.Column, text string) []filtering.Filter {
	var out []filtering.Filter
	for _, part := range strings.Split(text, ",") {
		if f, ok := parseFilter(c, part); ok {
			out = append(out, f)
		}
	}
	return out
}

func filterText(filters []filtering.Filter, columnID string) string {
	var parts []string
	for _, f := range filters {
		if f.ColumnID != columnID {
			continue
		}
		parts = append(parts, filterPart(f))
	}
	return strings.Join(parts, ", ")
}

func filterPart(f filtering.Filter) string {
	for _, p := range filterPrefixes {
		if p.op == f.Operator {
			return p.prefix + " " + grid.Stringify(f.Value)
		}
	}
	if f.Operator == filtering.Contains {
		return grid.Stringify(f.Value)
	}
	return string(f.Operator) + " " + grid.Stringify(f.Value)
}

// eventQueue hands controller events to the bubbletea loop in order. Push
// never blocks, so subscribers stay cheap for the controller.
type eventQueue struct {
	mu      sync.Mutex
	pending []controller.Event
	notify  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev controller.Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-q.notify:
		}
		q.mu.Lock()
		evs := q.pending
		q.pending = nil
		q.mu.Unlock()
		return eventsMsg(evs)
	}
}
