package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jask/gridcore/internal/grid"
)

// ColumnRepo stores a dataset's column definitions in display order.
type ColumnRepo struct {
	db DBTX
}

func NewColumnRepo(db DBTX) *ColumnRepo { return &ColumnRepo{db: db} }

// Replace swaps the dataset's whole column set. Run it inside a transaction.
func (r *ColumnRepo) Replace(ctx context.Context, datasetID string, cols []grid.Column) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dataset_columns WHERE dataset_id = ?`, datasetID); err != nil {
		return err
	}
	for i, c := range cols {
		var editor sql.NullString
		if c.Editor != nil {
			b, err := json.Marshal(c.Editor)
			if err != nil {
				return fmt.Errorf("column %s editor: %w", c.ID, err)
			}
			editor = sql.NullString{String: string(b), Valid: true}
		}
		_, err := r.db.ExecContext(ctx, `
		INSERT INTO dataset_columns(
		 dataset_id, id, position, field, title, type, align, sortable, filterable, resizable,
		 width, min_width, max_width, editor)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`,
			datasetID, c.ID, i, c.Field, c.Title, string(c.Type), string(c.Align), c.Sortable, c.Filterable, c.Resizable,
			c.Width, c.MinWidth, c.MaxWidth, editor)
		if err != nil {
			return fmt.Errorf("insert column %s: %w", c.ID, err)
		}
	}
	return nil
}

func (r *ColumnRepo) List(ctx context.Context, datasetID string) ([]grid.Column, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, field, title, type, align, sortable, filterable, resizable, width, min_width, max_width, editor
	FROM dataset_columns WHERE dataset_id = ? ORDER BY position`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []grid.Column
	for rows.Next() {
		var (
			c          grid.Column
			typ, align string
			editor     sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Field, &c.Title, &typ, &align, &c.Sortable, &c.Filterable, &c.Resizable,
			&c.Width, &c.MinWidth, &c.MaxWidth, &editor); err != nil {
			return nil, err
		}
		c.Type = grid.ColumnType(typ)
		c.Align = grid.Align(align)
		if editor.Valid {
			c.Editor = &grid.Editor{}
			if err := json.Unmarshal([]byte(editor.String), c.Editor); err != nil {
				return nil, fmt.Errorf("column %s editor: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
