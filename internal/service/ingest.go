package service

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/jask/gridcore/internal/database"
	"github.com/jask/gridcore/internal/database/repository"
	"github.com/jask/gridcore/internal/grid"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 40
)

// IngestService turns CSV files into datasets.
type IngestService struct {
	DB *sql.DB
}

type IngestResult struct {
	DatasetID string
	Columns   []grid.Column
	Imported  int
	Skipped   int
	Errors    []error
}

// ImportCSV reads a CSV with a header line into the dataset called name,
// replacing any previous contents. Column types are inferred from the data.
// A column headed "id" supplies row ids; otherwise ids are generated.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, name string) (IngestResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return IngestResult{}, errors.New("dataset name required")
	}
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err == io.EOF {
		return IngestResult{}, errors.New("empty csv")
	}
	if err != nil {
		return IngestResult{}, fmt.Errorf("header: %w", err)
	}

	res := IngestResult{DatasetID: repository.DatasetID(name)}
	var records [][]string
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if len(rec) != len(header) {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(rec)))
			continue
		}
		records = append(records, rec)
	}

	idCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "id") {
			idCol = i
			break
		}
	}
	cols := inferColumns(header, records, idCol)
	res.Columns = cols

	rows := make([]grid.Row, 0, len(records))
	seen := make(map[string]bool, len(records))
	for n, rec := range records {
		id := uuid.NewString()
		if idCol >= 0 {
			id = strings.TrimSpace(rec[idCol])
		}
		if id == "" || seen[id] {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Errorf("record %d: missing or duplicate id %q", n+1, id))
			continue
		}
		seen[id] = true
		data := make(map[string]any, len(cols))
		ci := 0
		for i, raw := range rec {
			if i == idCol {
				continue
			}
			data[cols[ci].Field] = convert(cols[ci].Type, raw)
			ci++
		}
		rows = append(rows, grid.Row{ID: id, Data: data})
	}

	err = database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := repository.NewDatasetRepo(tx).Upsert(ctx, repository.Dataset{ID: res.DatasetID, Name: name, Source: "csv"}); err != nil {
			return fmt.Errorf("dataset: %w", err)
		}
		if err := repository.NewColumnRepo(tx).Replace(ctx, res.DatasetID, cols); err != nil {
			return err
		}
		rowRepo := repository.NewRowRepo(tx)
		if err := rowRepo.DeleteAll(ctx, res.DatasetID); err != nil {
			return err
		}
		return rowRepo.Append(ctx, res.DatasetID, rows)
	})
	if err != nil {
		return res, err
	}
	res.Imported = len(rows)
	return res, nil
}

func inferColumns(header []string, records [][]string, idCol int) []grid.Column {
	var cols []grid.Column
	used := map[string]int{}
	for i, h := range header {
		if i == idCol {
			continue
		}
		title := strings.TrimSpace(h)
		id := slug(title)
		if id == "" {
			id = fmt.Sprintf("col%d", i+1)
		}
		if n := used[id]; n > 0 {
			used[id]++
			id = fmt.Sprintf("%s_%d", id, n+1)
		} else {
			used[id] = 1
		}
		width := runewidth.StringWidth(title)
		values := make([]string, 0, len(records))
		for _, rec := range records {
			values = append(values, rec[i])
			width = max(width, runewidth.StringWidth(strings.TrimSpace(rec[i])))
		}
		typ := inferType(values)
		col := grid.Column{
			ID:         id,
			Field:      id,
			Title:      title,
			Type:       typ,
			Align:      grid.AlignLeft,
			Sortable:   true,
			Filterable: true,
			Resizable:  true,
			Width:      min(max(width, minColumnWidth), maxColumnWidth),
			MinWidth:   minColumnWidth,
			MaxWidth:   maxColumnWidth * 2,
			Editor:     &grid.Editor{Kind: editorFor(typ)},
		}
		if typ.Numeric() {
			col.Align = grid.AlignRight
		}
		cols = append(cols, col)
	}
	return cols
}

func editorFor(t grid.ColumnType) grid.EditorKind {
	switch t {
	case grid.TypeNumber, grid.TypeCurrency, grid.TypePercentage:
		return grid.EditorNumber
	case grid.TypeBoolean:
		return grid.EditorCheckbox
	case grid.TypeDate:
		return grid.EditorDate
	}
	return grid.EditorText
}

// inferType picks the narrowest type every non-empty value satisfies.
func inferType(values []string) grid.ColumnType {
	candidates := []struct {
		typ grid.ColumnType
		ok  func(string) bool
	}{
		{grid.TypeBoolean, func(s string) bool { _, ok := parseBool(s); return ok }},
		{grid.TypePercentage, func(s string) bool {
			return strings.HasSuffix(s, "%") && isNumber(strings.TrimSuffix(s, "%"))
		}},
		{grid.TypeCurrency, func(s string) bool {
			return strings.ContainsRune(s, '$') && isNumber(stripCurrency(s))
		}},
		{grid.TypeNumber, isNumber},
		{grid.TypeDate, func(s string) bool { _, err := time.Parse(time.DateOnly, s); return err == nil }},
	}
	nonEmpty := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return grid.TypeText
	}
	for _, c := range candidates {
		all := true
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v != "" && !c.ok(v) {
				all = false
				break
			}
		}
		if all {
			return c.typ
		}
	}
	return grid.TypeText
}

func convert(t grid.ColumnType, raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	switch t {
	case grid.TypeBoolean:
		b, _ := parseBool(s)
		return b
	case grid.TypePercentage:
		f, _ := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return f
	case grid.TypeCurrency:
		f, _ := strconv.ParseFloat(stripCurrency(s), 64)
		return f
	case grid.TypeNumber:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		return f
	}
	return s
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}

func stripCurrency(s string) string {
	s = strings.ReplaceAll(s, "$", "")
	return strings.ReplaceAll(s, ",", "")
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "y":
		return true, true
	case "false", "no", "n":
		return false, true
	}
	return false, false
}

func slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
