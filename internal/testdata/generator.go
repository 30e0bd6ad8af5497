package testdata

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jask/gridcore/internal/database/repository"
	"github.com/jask/gridcore/internal/grid"
)

var (
	owners   = []string{"Ada", "Grace", "Linus", "Barbara", "Ken", "Radia", "Dennis", "Margaret"}
	statuses = []string{"planned", "active", "blocked", "done"}
	words    = []string{"Atlas", "Beacon", "Comet", "Delta", "Ember", "Falcon", "Granite", "Harbor", "Iris", "Juniper"}
)

// Columns returns the sample project columns. Every column is sortable and
// filterable; most are editable with validation rules attached.
func Columns() []grid.Column {
	return []grid.Column{
		{ID: "name", Field: "name", Title: "Project", Type: grid.TypeText, Align: grid.AlignLeft,
			Sortable: true, Filterable: true, Resizable: true, Width: 18, MinWidth: 8, MaxWidth: 40,
			Editor: &grid.Editor{Kind: grid.EditorText, Rules: []grid.RuleSpec{
				{Kind: "required"},
				{Kind: "minLength", Arg: "2"},
				{Kind: "maxLength", Arg: "40"},
			}}},
		{ID: "owner", Field: "owner", Title: "Owner", Type: grid.TypeText, Align: grid.AlignLeft,
			Sortable: true, Filterable: true, Resizable: true, Width: 10, MinWidth: 6, MaxWidth: 20,
			Editor: &grid.Editor{Kind: grid.EditorSelect, Options: owners}},
		{ID: "status", Field: "status", Title: "Status", Type: grid.TypeText, Align: grid.AlignCenter,
			Sortable: true, Filterable: true, Resizable: true, Width: 9, MinWidth: 6, MaxWidth: 12,
			Editor: &grid.Editor{Kind: grid.EditorSelect, Options: statuses}},
		{ID: "budget", Field: "budget", Title: "Budget", Type: grid.TypeCurrency, Align: grid.AlignRight,
			Sortable: true, Filterable: true, Resizable: true, Width: 12, MinWidth: 8, MaxWidth: 16,
			Editor: &grid.Editor{Kind: grid.EditorNumber, Rules: []grid.RuleSpec{
				{Kind: "required"},
				{Kind: "min", Arg: "0"},
			}}},
		{ID: "spent", Field: "spent", Title: "Spent", Type: grid.TypeCurrency, Align: grid.AlignRight,
			Sortable: true, Filterable: true, Resizable: true, Width: 12, MinWidth: 8, MaxWidth: 16,
			Editor: &grid.Editor{Kind: grid.EditorNumber, Rules: []grid.RuleSpec{
				{Kind: "min", Arg: "0"},
				{Kind: "expr", Arg: "value == nil || row.budget == nil || value <= row.budget", Message: "exceeds budget"},
			}}},
		{ID: "progress", Field: "progress", Title: "Progress", Type: grid.TypePercentage, Align: grid.AlignRight,
			Sortable: true, Filterable: true, Resizable: true, Width: 9, MinWidth: 6, MaxWidth: 12,
			Editor: &grid.Editor{Kind: grid.EditorNumber, Rules: []grid.RuleSpec{
				{Kind: "min", Arg: "0"},
				{Kind: "max", Arg: "100"},
			}}},
		{ID: "start", Field: "start", Title: "Start", Type: grid.TypeDate, Align: grid.AlignLeft,
			Sortable: true, Filterable: true, Resizable: true, Width: 10, MinWidth: 10, MaxWidth: 12,
			Editor: &grid.Editor{Kind: grid.EditorDate}},
		{ID: "billable", Field: "billable", Title: "Billable", Type: grid.TypeBoolean, Align: grid.AlignCenter,
			Sortable: true, Filterable: true, Resizable: false, Width: 8, MinWidth: 8, MaxWidth: 8,
			Editor: &grid.Editor{Kind: grid.EditorCheckbox}},
		{ID: "code", Field: "code", Title: "Code", Type: grid.TypeText, Align: grid.AlignLeft,
			Sortable: true, Filterable: true, Resizable: true, Width: 10, MinWidth: 6, MaxWidth: 14},
	}
}

// Rows generates n deterministic sample rows for the given seed. Every
// seventeenth row is disabled. Values round-trip through JSON unchanged.
func Rows(n int, seed uint64) []grid.Row {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]grid.Row, 0, max(n, 0))
	for i := range max(n, 0) {
		budget := float64(r.IntN(500)+1) * 100
		spent := math.Round(budget*r.Float64()*100) / 100
		rows = append(rows, grid.Row{
			ID:       fmt.Sprintf("p%05d", i+1),
			Disabled: (i+1)%17 == 0,
			Data: map[string]any{
				"name":     fmt.Sprintf("%s %s %d", words[r.IntN(len(words))], words[r.IntN(len(words))], i+1),
				"owner":    owners[r.IntN(len(owners))],
				"status":   statuses[r.IntN(len(statuses))],
				"budget":   budget,
				"spent":    spent,
				"progress": float64(r.IntN(101)),
				"start":    base.AddDate(0, 0, r.IntN(730)).Format(time.DateOnly),
				"billable": r.IntN(2) == 0,
				"code":     uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d:%d", seed, i))).String()[:8],
			},
		})
	}
	return rows
}

// Seed stores a generated dataset called name and returns its id.
func Seed(ctx context.Context, db *sql.DB, name string, n int, seed uint64) (string, error) {
	id := repository.DatasetID(name)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if err := repository.NewDatasetRepo(tx).Upsert(ctx, repository.Dataset{ID: id, Name: name, Source: "generated"}); err != nil {
		return "", err
	}
	if err := repository.NewColumnRepo(tx).Replace(ctx, id, Columns()); err != nil {
		return "", err
	}
	rows := repository.NewRowRepo(tx)
	if err := rows.DeleteAll(ctx, id); err != nil {
		return "", err
	}
	if err := rows.Append(ctx, id, Rows(n, seed)); err != nil {
		return "", err
	}
	return id, tx.Commit()
}
