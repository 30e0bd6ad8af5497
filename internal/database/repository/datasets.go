package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// DatasetID derives a stable id from a dataset name so re-imports replace
// the same dataset. Names compare case-insensitively.
func DatasetID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("dataset:"+key)).String()
}

// DatasetRepo handles datasets.
type DatasetRepo struct {
	db DBTX
}

func NewDatasetRepo(db DBTX) *DatasetRepo { return &DatasetRepo{db: db} }

func (r *DatasetRepo) Upsert(ctx context.Context, d Dataset) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO datasets(id, name, source, created_at, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 source=excluded.source,
	 updated_at=CURRENT_TIMESTAMP;
	`, d.ID, d.Name, d.Source)
	return err
}

func (r *DatasetRepo) Get(ctx context.Context, id string) (Dataset, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT id, name, source, created_at, updated_at FROM datasets WHERE id = ?`, id))
}

func (r *DatasetRepo) GetByName(ctx context.Context, name string) (Dataset, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT id, name, source, created_at, updated_at FROM datasets WHERE name = ?`, name))
}

func (r *DatasetRepo) List(ctx context.Context) ([]Dataset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, source, created_at, updated_at FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Source, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes a dataset; its columns and rows cascade.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	return err
}

func (r *DatasetRepo) scanOne(row *sql.Row) (Dataset, error) {
	var d Dataset
	err := row.Scan(&d.ID, &d.Name, &d.Source, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, ErrNotFound
	}
	return d, err
}
