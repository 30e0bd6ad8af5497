package editing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/gridcore/internal/grid"
)

func ageColumn() grid.Column {
	return grid.Column{
		ID: "age", Field: "age", Type: grid.TypeNumber,
		Editor: &grid.Editor{Kind: grid.EditorNumber, Rules: []grid.RuleSpec{
			{Kind: "required"},
			{Kind: "min", Arg: "0"},
			{Kind: "max", Arg: "150"},
		}},
	}
}

func nameColumn() grid.Column {
	return grid.Column{
		ID: "name", Field: "name", Type: grid.TypeText,
		Editor: &grid.Editor{Kind: grid.EditorText, Rules: []grid.RuleSpec{
			{Kind: "required", Message: "name is required"},
			{Kind: "maxLength", Arg: "5"},
		}},
	}
}

func TestBeginRequiresEditor(t *testing.T) {
	m := NewManager()
	_, err := m.Begin(Target{RowID: "1", Column: grid.Column{ID: "x", Field: "x"}})
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = m.Begin(Target{Column: ageColumn()})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, Idle, m.State())
}

func TestBeginSameCellIsIdempotent(t *testing.T) {
	m := NewManager()
	prev, err := m.Begin(Target{RowID: "1", Column: ageColumn(), Original: 30})
	require.NoError(t, err)
	require.Nil(t, prev)
	_, err = m.Update("31")
	require.NoError(t, err)

	prev, err = m.Begin(Target{RowID: "1", Column: ageColumn(), Original: 30})
	require.NoError(t, err)
	require.Nil(t, prev)
	s, ok := m.Active()
	require.True(t, ok)
	require.Equal(t, 31.0, s.Pending, "pending value survives a repeated begin")
}

func TestBeginOtherCellDiscardsPrevious(t *testing.T) {
	m := NewManager()
	_, err := m.Begin(Target{RowID: "1", Column: ageColumn(), Original: 30})
	require.NoError(t, err)
	_, err = m.Update("99")
	require.NoError(t, err)

	prev, err := m.Begin(Target{RowID: "2", Column: nameColumn(), Original: "Amy"})
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.Equal(t, "1", prev.RowID)
	require.Equal(t, 30, prev.Pending, "discarded session reverts to the original")

	s, ok := m.Active()
	require.True(t, ok)
	require.Equal(t, "2", s.RowID)
	require.Equal(t, "name", s.ColumnID)
	require.Equal(t, Editing, s.State)
}

func TestCommitBlockedByValidation(t *testing.T) {
	m := NewManager()
	_, err := m.Begin(Target{RowID: "1", Column: ageColumn(), Original: 30})
	require.NoError(t, err)

	s, err := m.Update("-3")
	require.NoError(t, err)
	require.Equal(t, []string{"must be at least 0"}, s.Errors)

	_, err = m.Commit()
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, Editing, m.State(), "a failed commit keeps the session open")

	s, err = m.Update("abc")
	require.NoError(t, err)
	require.Equal(t, []string{"must be a number"}, s.Errors)
	require.Equal(t, "abc", s.Pending)

	s, err = m.Update("")
	require.NoError(t, err)
	require.Equal(t, []string{"value is required"}, s.Errors)

	s, err = m.Update(" 42 ")
	require.NoError(t, err)
	require.True(t, s.Valid())

	res, err := m.Commit()
	require.NoError(t, err)
	require.Equal(t, Result{RowID: "1", ColumnID: "age", Old: 30, New: 42.0}, res)
	require.Equal(t, Idle, m.State())
	_, ok := m.Active()
	require.False(t, ok)
}

func TestDiscardRestoresOriginal(t *testing.T) {
	m := NewManager()
	_, ok := m.Discard()
	require.False(t, ok)

	_, err := m.Begin(Target{RowID: "1", Column: nameColumn(), Original: "Amy"})
	require.NoError(t, err)
	s, err := m.Update("Bartholomew")
	require.NoError(t, err)
	require.Equal(t, []string{"must be at most 5 characters"}, s.Errors)

	s, ok = m.Discard()
	require.True(t, ok)
	require.Equal(t, "Amy", s.Pending)
	require.Empty(t, s.Errors)
	require.Equal(t, Idle, m.State())
}

func TestOperationsWithoutSession(t *testing.T) {
	m := NewManager()
	_, err := m.Update("x")
	require.ErrorIs(t, err, ErrNoSession)
	_, err = m.Commit()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestBadRuleMakesColumnUnavailable(t *testing.T) {
	col := grid.Column{ID: "c", Field: "c", Editor: &grid.Editor{Rules: []grid.RuleSpec{{Kind: "pattern", Arg: "("}}}}
	m := NewManager()
	_, err := m.Begin(Target{RowID: "1", Column: col})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, Idle, m.State())
}

func TestExprRuleSeesRow(t *testing.T) {
	col := grid.Column{ID: "spent", Field: "spent", Type: grid.TypeCurrency, Editor: &grid.Editor{
		Kind:  grid.EditorNumber,
		Rules: []grid.RuleSpec{{Kind: "expr", Arg: "value <= row.budget", Message: "over budget"}},
	}}
	m := NewManager()
	_, err := m.Begin(Target{RowID: "1", Column: col, Original: 10.0, Row: map[string]any{"budget": 100.0}})
	require.NoError(t, err)

	s, err := m.Update("120")
	require.NoError(t, err)
	require.Equal(t, []string{"over budget"}, s.Errors)

	s, err = m.Update("80")
	require.NoError(t, err)
	require.True(t, s.Valid())
}

func TestTransitionsAreChecked(t *testing.T) {
	m := NewManager()
	err := m.to(Committing)
	require.True(t, errors.Is(err, ErrInvalidTransition))
	require.Equal(t, Idle, m.State())
}

func TestCoerce(t *testing.T) {
	boolCol := grid.Column{ID: "b", Type: grid.TypeBoolean, Editor: &grid.Editor{Kind: grid.EditorCheckbox}}
	v, msg := Coerce(boolCol, "TRUE", false)
	require.Empty(t, msg)
	require.Equal(t, true, v)
	_, msg = Coerce(boolCol, "maybe", false)
	require.Equal(t, "must be true or false", msg)

	sel := grid.Column{ID: "s", Editor: &grid.Editor{Kind: grid.EditorSelect, Options: []string{"low", "high"}}}
	_, msg = Coerce(sel, "high", nil)
	require.Empty(t, msg)
	_, msg = Coerce(sel, "mid", nil)
	require.Equal(t, "must be one of low, high", msg)

	date := grid.Column{ID: "d", Type: grid.TypeDate, Editor: &grid.Editor{Kind: grid.EditorDate}}
	v, msg = Coerce(date, "2024-02-29", time.Time{})
	require.Empty(t, msg)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), v)
	v, msg = Coerce(date, "2024-02-29", "2024-01-01")
	require.Empty(t, msg)
	require.Equal(t, "2024-02-29", v)
	_, msg = Coerce(date, "29/02/2024", nil)
	require.NotEmpty(t, msg)

	pct := grid.Column{ID: "p", Type: grid.TypePercentage, Editor: &grid.Editor{Kind: grid.EditorText}}
	v, msg = Coerce(pct, "12.5", nil)
	require.Empty(t, msg)
	require.Equal(t, 12.5, v)

	// non-string input passes through untouched
	v, msg = Coerce(pct, 7, nil)
	require.Empty(t, msg)
	require.Equal(t, 7, v)
}
