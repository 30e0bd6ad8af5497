package grid

// ColumnType drives comparison and editor coercion.
type ColumnType string

const (
	TypeText       ColumnType = "text"
	TypeNumber     ColumnType = "number"
	TypeDate       ColumnType = "date"
	TypeBoolean    ColumnType = "boolean"
	TypeCurrency   ColumnType = "currency"
	TypePercentage ColumnType = "percentage"
)

// Numeric reports whether values of this type compare as numbers.
func (t ColumnType) Numeric() bool {
	switch t {
	case TypeNumber, TypeCurrency, TypePercentage:
		return true
	}
	return false
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// EditorKind names the input a renderer should show for an editable cell.
type EditorKind string

const (
	EditorText     EditorKind = "text"
	EditorNumber   EditorKind = "number"
	EditorSelect   EditorKind = "select"
	EditorDate     EditorKind = "date"
	EditorCheckbox EditorKind = "checkbox"
)

// RuleSpec is a declarative validation rule. Kind is one of required,
// minLength, maxLength, min, max, pattern, oneOf or expr.
type RuleSpec struct {
	Kind    string `json:"kind"`
	Arg     string `json:"arg,omitempty"`
	Message string `json:"message,omitempty"`
}

// Editor marks a column as editable.
type Editor struct {
	Kind    EditorKind `json:"kind"`
	Options []string   `json:"options,omitempty"`
	Rules   []RuleSpec `json:"rules,omitempty"`
}

// Column describes one column of the grid. ID is unique within a column set,
// Field is the key into Row.Data and may be shared.
type Column struct {
	ID         string
	Field      string
	Title      string
	Type       ColumnType
	Align      Align
	Sortable   bool
	Filterable bool
	Resizable  bool
	Width      int
	MinWidth   int
	MaxWidth   int
	Editor     *Editor
}

// Editable reports whether the column has an editor attached.
func (c Column) Editable() bool { return c.Editor != nil }

// ClampWidth keeps w within the column's min/max bounds (zero bounds are ignored).
func (c Column) ClampWidth(w int) int {
	if c.MinWidth > 0 && w < c.MinWidth {
		w = c.MinWidth
	}
	if c.MaxWidth > 0 && w > c.MaxWidth {
		w = c.MaxWidth
	}
	return w
}

// Value extracts this column's field from a row.
func (c Column) Value(r Row) any {
	if r.Data == nil {
		return nil
	}
	return r.Data[c.Field]
}
