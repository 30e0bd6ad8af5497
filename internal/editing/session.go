// Package editing holds the single in-flight cell edit of a grid and
// validates pending values against the column's rules.
package editing

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jask/gridcore/internal/grid"
)

var (
	ErrUnavailable       = errors.New("editing unavailable for this cell")
	ErrValidation        = errors.New("pending value failed validation")
	ErrNoSession         = errors.New("no edit in progress")
	ErrInvalidTransition = errors.New("invalid edit state transition")
)

type State string

const (
	Idle       State = "idle"
	Editing    State = "editing"
	Committing State = "committing"
	Discarding State = "discarding"
)

var transitions = map[State][]State{
	Idle:       {Editing},
	Editing:    {Editing, Committing, Discarding},
	Committing: {Idle},
	Discarding: {Idle},
}

// DateLayout is the accepted input form for date editors.
const DateLayout = "2006-01-02"

// Session is a snapshot of the active edit.
type Session struct {
	RowID    string   `json:"rowId"`
	ColumnID string   `json:"columnId"`
	Original any      `json:"original"`
	Pending  any      `json:"pending"`
	Errors   []string `json:"errors,omitempty"`
	State    State    `json:"state"`
}

// Valid reports whether the pending value currently passes every rule.
func (s Session) Valid() bool { return len(s.Errors) == 0 }

// Target identifies the cell being edited and carries what validation needs.
type Target struct {
	RowID    string
	Column   grid.Column
	Original any
	// Row is the rest of the row, visible to expression rules.
	Row map[string]any
}

// Result is what a successful commit hands back to the caller.
type Result struct {
	RowID    string
	ColumnID string
	Old      any
	New      any
}

// Manager owns at most one Session. It is not safe for concurrent use; the
// controller serializes access.
type Manager struct {
	state   State
	session Session
	column  grid.Column
	row     map[string]any
	rules   []Rule

	compiled map[string][]Rule
}

func NewManager() *Manager {
	return &Manager{state: Idle, compiled: map[string][]Rule{}}
}

func (m *Manager) State() State { return m.state }

// Active returns a copy of the open session.
func (m *Manager) Active() (Session, bool) {
	if m.state == Idle {
		return Session{}, false
	}
	return m.snapshot(), true
}

// Is reports whether the given cell is the one being edited.
func (m *Manager) Is(rowID, columnID string) bool {
	return m.state != Idle && m.session.RowID == rowID && m.session.ColumnID == columnID
}

// ForgetRules drops compiled rules, e.g. after the column set changed.
func (m *Manager) ForgetRules() {
	clear(m.compiled)
}

// Begin opens a session on the target cell. Re-opening the active cell is a
// no-op. When another cell is active that session is discarded first and
// returned so the caller can report it.
func (m *Manager) Begin(t Target) (*Session, error) {
	if t.RowID == "" || !t.Column.Editable() {
		return nil, ErrUnavailable
	}
	if m.Is(t.RowID, t.Column.ID) {
		return nil, nil
	}
	rules, err := m.rulesFor(t.Column)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	var prev *Session
	if m.state != Idle {
		discarded, _ := m.Discard()
		prev = &discarded
	}
	if err := m.to(Editing); err != nil {
		return prev, err
	}
	m.session = Session{
		RowID:    t.RowID,
		ColumnID: t.Column.ID,
		Original: t.Original,
		Pending:  t.Original,
		State:    Editing,
	}
	m.column = t.Column
	m.row = maps.Clone(t.Row)
	m.rules = rules
	return prev, nil
}

// Update stores a new pending value and revalidates it.
func (m *Manager) Update(value any) (Session, error) {
	if m.state != Editing {
		return Session{}, ErrNoSession
	}
	coerced, msg := Coerce(m.column, value, m.session.Original)
	m.session.Pending = coerced
	if msg != "" {
		m.session.Errors = []string{msg}
	} else {
		m.session.Errors = m.validate(coerced)
	}
	return m.snapshot(), nil
}

// Commit closes the session when the pending value is valid. With errors the
// session stays open and ErrValidation is returned.
func (m *Manager) Commit() (Result, error) {
	if m.state != Editing {
		return Result{}, ErrNoSession
	}
	if len(m.session.Errors) > 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrValidation, strings.Join(m.session.Errors, "; "))
	}
	if err := m.to(Committing); err != nil {
		return Result{}, err
	}
	res := Result{
		RowID:    m.session.RowID,
		ColumnID: m.session.ColumnID,
		Old:      m.session.Original,
		New:      m.session.Pending,
	}
	m.close()
	return res, nil
}

// Discard abandons the session. The returned snapshot has Pending reset to
// Original. It reports false when nothing was open.
func (m *Manager) Discard() (Session, bool) {
	if m.state != Editing {
		return Session{}, false
	}
	if err := m.to(Discarding); err != nil {
		return Session{}, false
	}
	m.session.Pending = m.session.Original
	m.session.Errors = nil
	out := m.snapshot()
	m.close()
	return out, true
}

func (m *Manager) close() {
	_ = m.to(Idle)
	m.session = Session{State: Idle}
	m.column = grid.Column{}
	m.row = nil
	m.rules = nil
}

func (m *Manager) to(next State) error {
	if !slices.Contains(transitions[m.state], next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.state = next
	m.session.State = next
	return nil
}

func (m *Manager) snapshot() Session {
	s := m.session
	s.Errors = slices.Clone(s.Errors)
	return s
}

func (m *Manager) validate(value any) []string {
	var errs []string
	for _, r := range m.rules {
		if msg := r.Check(value, m.row); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func (m *Manager) rulesFor(col grid.Column) ([]Rule, error) {
	if rules, ok := m.compiled[col.ID]; ok {
		return rules, nil
	}
	var specs []grid.RuleSpec
	if col.Editor != nil {
		specs = col.Editor.Rules
	}
	rules, err := CompileAll(specs)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col.ID, err)
	}
	m.compiled[col.ID] = rules
	return rules, nil
}

// Coerce converts raw editor input into the column's value type. A non-empty
// message means the input could not be converted; the raw value is returned
// unchanged in that case.
func Coerce(col grid.Column, value any, original any) (any, string) {
	s, isString := value.(string)
	if !isString {
		return value, ""
	}
	kind := grid.EditorText
	if col.Editor != nil {
		kind = col.Editor.Kind
	}
	trimmed := strings.TrimSpace(s)

	switch {
	case kind == grid.EditorNumber || (kind == grid.EditorText && col.Type.Numeric()):
		if trimmed == "" {
			return nil, ""
		}
		n, ok := grid.ParseNumber(trimmed)
		if !ok {
			return value, "must be a number"
		}
		return n, ""
	case kind == grid.EditorCheckbox || col.Type == grid.TypeBoolean:
		if trimmed == "" {
			return false, ""
		}
		b, err := strconv.ParseBool(strings.ToLower(trimmed))
		if err != nil {
			return value, "must be true or false"
		}
		return b, ""
	case kind == grid.EditorSelect:
		if len(col.Editor.Options) > 0 && !slices.Contains(col.Editor.Options, s) {
			return value, "must be one of " + strings.Join(col.Editor.Options, ", ")
		}
		return s, ""
	case kind == grid.EditorDate || col.Type == grid.TypeDate:
		if trimmed == "" {
			return nil, ""
		}
		t, err := time.Parse(DateLayout, trimmed)
		if err != nil {
			return value, "must be a date (YYYY-MM-DD)"
		}
		if _, ok := original.(time.Time); ok {
			return t, ""
		}
		return trimmed, ""
	}
	return s, ""
}
