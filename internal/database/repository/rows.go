package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jask/gridcore/internal/grid"
)

// RowRepo stores rows with their data as a JSON object.
type RowRepo struct {
	db DBTX
}

func NewRowRepo(db DBTX) *RowRepo { return &RowRepo{db: db} }

// Append inserts rows after the dataset's current last position.
func (r *RowRepo) Append(ctx context.Context, datasetID string, rows []grid.Row) error {
	var next int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM dataset_rows WHERE dataset_id = ?`, datasetID).Scan(&next); err != nil {
		return err
	}
	for i, row := range rows {
		data, err := json.Marshal(row.Data)
		if err != nil {
			return fmt.Errorf("row %s data: %w", row.ID, err)
		}
		_, err = r.db.ExecContext(ctx, `
		INSERT INTO dataset_rows(dataset_id, id, position, disabled, data, updated_at)
		VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
		`, datasetID, row.ID, next+i, row.Disabled, string(data))
		if err != nil {
			return fmt.Errorf("insert row %s: %w", row.ID, err)
		}
	}
	return nil
}

func (r *RowRepo) List(ctx context.Context, datasetID string, q RowQuery) ([]grid.Row, error) {
	where := []string{"dataset_id = ?"}
	args := []any{datasetID}
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, "data LIKE ?")
		args = append(args, "%"+s+"%")
	}
	query := "SELECT id, disabled, data FROM dataset_rows WHERE " + strings.Join(where, " AND ") + " ORDER BY position"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, max(q.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []grid.Row
	for rows.Next() {
		var (
			row  grid.Row
			data string
		)
		if err := rows.Scan(&row.ID, &row.Disabled, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &row.Data); err != nil {
			return nil, fmt.Errorf("row %s data: %w", row.ID, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *RowRepo) Count(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dataset_rows WHERE dataset_id = ?`, datasetID).Scan(&n)
	return n, err
}

// UpdateCell writes one field of one row.
func (r *RowRepo) UpdateCell(ctx context.Context, datasetID, rowID, field string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	path := `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
	res, err := r.db.ExecContext(ctx, `
	UPDATE dataset_rows SET data = json_set(data, ?, json(?)), updated_at = CURRENT_TIMESTAMP
	WHERE dataset_id = ? AND id = ?`, path, string(b), datasetID, rowID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RowRepo) DeleteAll(ctx context.Context, datasetID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dataset_rows WHERE dataset_id = ?`, datasetID)
	return err
}
