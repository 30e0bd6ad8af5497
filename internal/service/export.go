package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/grid"
)

var ErrUnknownFormat = errors.New("unknown export format")

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Exporter writes exported rows. The row id always comes first.
type Exporter struct{}

func (Exporter) Write(w io.Writer, format string, cols []grid.Column, rows []grid.Row) error {
	switch strings.ToLower(format) {
	case FormatCSV, "":
		return writeCSV(w, cols, rows)
	case FormatJSON:
		return writeJSON(w, cols, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFile writes an export request into dir and returns the file path.
func (e Exporter) WriteFile(dir, name string, ev controller.ExportRequestEvent) (string, error) {
	format := strings.ToLower(ev.Format)
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ev.Format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}
	path := filepath.Join(dir, name+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := e.Write(f, format, ev.Columns, ev.Rows); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func writeCSV(w io.Writer, cols []grid.Column, rows []grid.Row) error {
	cw := csv.NewWriter(w)
	header := []string{"id"}
	for _, c := range cols {
		header = append(header, c.Title)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for _, r := range rows {
		rec[0] = r.ID
		for i, c := range cols {
			rec[i+1] = grid.Stringify(c.Value(r))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, cols []grid.Column, rows []grid.Row) error {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]any, len(cols)+1)
		m["id"] = r.ID
		for _, c := range cols {
			m[c.Field] = c.Value(r)
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
