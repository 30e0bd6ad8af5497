package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Action string

const (
	actionQuit         Action = "quit"
	actionUp           Action = "up"
	actionDown         Action = "down"
	actionPageUp       Action = "page_up"
	actionPageDown     Action = "page_down"
	actionTop          Action = "top"
	actionBottom       Action = "bottom"
	actionLeft         Action = "left"
	actionRight        Action = "right"
	actionExtendUp     Action = "extend_up"
	actionExtendDown   Action = "extend_down"
	actionSort         Action = "sort"
	actionSearch       Action = "search"
	actionFilter       Action = "filter"
	actionClearFilters Action = "clear_filters"
	actionToggleSelect Action = "toggle_select"
	actionSelectAll    Action = "select_all"
	actionClearSel     Action = "clear_selection"
	actionEdit         Action = "edit"
	actionExportCSV    Action = "export_csv"
	actionExportJSON   Action = "export_json"
	actionPerfMode     Action = "perf_mode"
	actionVirtualize   Action = "virtualize"
	actionReload       Action = "reload"
	actionConfirm      Action = "confirm"
	actionCancel       Action = "cancel"
)

const (
	scopeGrid   = "grid"
	scopeSearch = "search"
	scopeFilter = "filter"
	scopeEdit   = "edit"
)

// Binding ties keys to an action within one scope.
type Binding struct {
	Action Action
	Keys   []string
	Help   string
}

// KeyRegistry resolves key names to actions per input scope.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}
	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(scope, Binding{Action: action, Keys: keys, Help: help})
	}

	reg(scopeGrid, actionUp, []string{"k", "up"}, "up")
	reg(scopeGrid, actionDown, []string{"j", "down"}, "down")
	reg(scopeGrid, actionPageUp, []string{"pgup", "ctrl+u"}, "page up")
	reg(scopeGrid, actionPageDown, []string{"pgdown", "ctrl+d"}, "page down")
	reg(scopeGrid, actionTop, []string{"g", "home"}, "top")
	reg(scopeGrid, actionBottom, []string{"G", "end"}, "bottom")
	reg(scopeGrid, actionLeft, []string{"h", "left"}, "column left")
	reg(scopeGrid, actionRight, []string{"l", "right"}, "column right")
	reg(scopeGrid, actionExtendUp, []string{"K", "shift+up"}, "extend up")
	reg(scopeGrid, actionExtendDown, []string{"J", "shift+down"}, "extend down")
	reg(scopeGrid, actionSort, []string{"s"}, "sort")
	reg(scopeGrid, actionSearch, []string{"/"}, "search")
	reg(scopeGrid, actionFilter, []string{"f"}, "filter")
	reg(scopeGrid, actionClearFilters, []string{"F"}, "clear filters")
	reg(scopeGrid, actionToggleSelect, []string{"space", " "}, "select")
	reg(scopeGrid, actionSelectAll, []string{"a"}, "select all")
	reg(scopeGrid, actionClearSel, []string{"u", "esc"}, "clear sel")
	reg(scopeGrid, actionEdit, []string{"enter", "e"}, "edit")
	reg(scopeGrid, actionExportCSV, []string{"x"}, "export csv")
	reg(scopeGrid, actionExportJSON, []string{"X"}, "export json")
	reg(scopeGrid, actionPerfMode, []string{"p"}, "perf mode")
	reg(scopeGrid, actionVirtualize, []string{"v"}, "virtualize")
	reg(scopeGrid, actionReload, []string{"r"}, "reload")
	reg(scopeGrid, actionQuit, []string{"q", "ctrl+c"}, "quit")

	for _, scope := range []string{scopeSearch, scopeFilter, scopeEdit} {
		reg(scope, actionConfirm, []string{"enter"}, "apply")
		reg(scope, actionCancel, []string{"esc"}, "cancel")
		reg(scope, actionQuit, []string{"ctrl+c"}, "quit")
	}
	return r
}

// Register adds b to scope. Keys already bound in the scope keep their
// first binding.
func (r *KeyRegistry) Register(scope string, b Binding) {
	scope = strings.TrimSpace(scope)
	keys := normalizeKeyList(b.Keys)
	if scope == "" || len(keys) == 0 {
		return
	}
	if _, ok := r.indexByScope[scope]; !ok {
		r.indexByScope[scope] = make(map[string]*Binding)
	}
	for _, k := range keys {
		if _, exists := r.indexByScope[scope][k]; exists {
			return
		}
	}
	cp := b
	cp.Keys = keys
	r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &cp)
	for _, k := range keys {
		r.indexByScope[scope][k] = &cp
	}
}

func (r *KeyRegistry) Lookup(msg tea.KeyMsg, scope string) Action {
	if b := r.indexByScope[scope][normalizeKeyName(msg.String())]; b != nil {
		return b.Action
	}
	return ""
}

// HelpBindings renders the scope as bubbles key bindings for the footer.
func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.bindingsByScope[scope]
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	// single uppercase runes stay distinct from their lowercase bindings
	if len(trimmed) == 1 && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
		return trimmed
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	return s
}
