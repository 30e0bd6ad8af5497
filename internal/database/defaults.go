package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/gridcore/internal/database/repository"
	"github.com/jask/gridcore/internal/testdata"
)

const (
	SampleDataset = "Sample projects"
	sampleRows    = 2000
	sampleSeed    = 42
)

// SeedDefaults stores a generated sample dataset when the database holds none.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	existing, err := repository.NewDatasetRepo(db).List(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if _, err := testdata.Seed(ctx, db, SampleDataset, sampleRows, sampleSeed); err != nil {
		return fmt.Errorf("seed sample: %w", err)
	}
	return nil
}
