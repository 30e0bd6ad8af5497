package grid

import (
	"errors"
	"fmt"
	"maps"
)

var (
	ErrNoColumns       = errors.New("grid: empty column set")
	ErrDuplicateColumn = errors.New("grid: duplicate column id")
	ErrMissingRowID    = errors.New("grid: row without id")
	ErrDuplicateRow    = errors.New("grid: duplicate row id")
)

// Row is one record. ID is stable across sort and filter and never changes
// for the life of the row.
type Row struct {
	ID       string
	Data     map[string]any
	Disabled bool
}

// ColumnLookup resolves column ids. Model satisfies it.
type ColumnLookup interface {
	Column(id string) (Column, bool)
	Columns() []Column
}

// Model owns the column definitions and the raw rows. Rows are only ever
// replaced wholesale; the single exception is SetCell, used to apply a
// committed edit.
type Model struct {
	columns  []Column
	colIndex map[string]int
	rows     []Row
	rowIndex map[string]int
	colErr   error
	rowErr   error
}

func NewModel() *Model {
	return &Model{colIndex: map[string]int{}, rowIndex: map[string]int{}}
}

// SetColumns replaces the column set. An empty set or a duplicate id leaves
// the model without columns; the returned error is also kept in Err.
func (m *Model) SetColumns(cols []Column) error {
	m.columns = nil
	m.colIndex = make(map[string]int, len(cols))
	m.colErr = nil
	if len(cols) == 0 {
		m.colErr = ErrNoColumns
		return m.colErr
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.ID == "" {
			m.colErr = fmt.Errorf("%w: column %d has no id", ErrDuplicateColumn, i)
			return m.colErr
		}
		if _, dup := index[c.ID]; dup {
			m.colErr = fmt.Errorf("%w: %q", ErrDuplicateColumn, c.ID)
			return m.colErr
		}
		index[c.ID] = i
	}
	m.columns = append([]Column(nil), cols...)
	m.colIndex = index
	return nil
}

// SetRows replaces every row. A row without an id or a repeated id rejects
// the whole set so the grid shows nothing rather than partial data.
func (m *Model) SetRows(rows []Row) error {
	m.rows = nil
	m.rowIndex = make(map[string]int, len(rows))
	m.rowErr = nil
	index := make(map[string]int, len(rows))
	out := make([]Row, len(rows))
	for i, r := range rows {
		if r.ID == "" {
			m.rowErr = fmt.Errorf("%w: row %d", ErrMissingRowID, i)
			return m.rowErr
		}
		if _, dup := index[r.ID]; dup {
			m.rowErr = fmt.Errorf("%w: %q", ErrDuplicateRow, r.ID)
			return m.rowErr
		}
		index[r.ID] = i
		r.Data = maps.Clone(r.Data)
		if r.Data == nil {
			r.Data = map[string]any{}
		}
		out[i] = r
	}
	m.rows = out
	m.rowIndex = index
	return nil
}

// Usable reports whether the model can produce a logical row list.
func (m *Model) Usable() bool {
	return len(m.columns) > 0 && m.colErr == nil && m.rowErr == nil
}

// Err reports the most recent configuration problem, if any.
func (m *Model) Err() error {
	return errors.Join(m.colErr, m.rowErr)
}

// Columns returns a copy of the column set.
func (m *Model) Columns() []Column {
	return append([]Column(nil), m.columns...)
}

func (m *Model) Column(id string) (Column, bool) {
	i, ok := m.colIndex[id]
	if !ok {
		return Column{}, false
	}
	return m.columns[i], true
}

// Rows returns the raw rows in load order. Callers must not modify the slice.
func (m *Model) Rows() []Row {
	return m.rows
}

func (m *Model) Row(id string) (Row, bool) {
	i, ok := m.rowIndex[id]
	if !ok {
		return Row{}, false
	}
	return m.rows[i], true
}

// Has reports whether a row with the id exists.
func (m *Model) Has(id string) bool {
	_, ok := m.rowIndex[id]
	return ok
}

// Disabled reports whether the row exists and is disabled.
func (m *Model) Disabled(id string) bool {
	i, ok := m.rowIndex[id]
	return ok && m.rows[i].Disabled
}

// SetCell writes a single field. Returns the previous value and false when
// the row does not exist.
func (m *Model) SetCell(rowID, field string, v any) (any, bool) {
	i, ok := m.rowIndex[rowID]
	if !ok {
		return nil, false
	}
	old := m.rows[i].Data[field]
	m.rows[i].Data[field] = v
	return old, true
}

func (m *Model) RowCount() int    { return len(m.rows) }
func (m *Model) ColumnCount() int { return len(m.columns) }

// Clone returns a copy of the row whose Data can be modified independently.
func (r Row) Clone() Row {
	r.Data = maps.Clone(r.Data)
	return r
}
