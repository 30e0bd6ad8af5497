package controller

import (
	"context"

	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/grid"
	"github.com/jask/gridcore/internal/sorting"
)

// Query is what the controller asks a provider for.
type Query struct {
	Search   string
	Filters  []filtering.Filter
	Sort     sorting.Spec
	Page     int
	PageSize int
}

// DataProvider fetches the full row set for a query. The result replaces the
// grid's rows wholesale. Fetch must honour ctx cancellation; a superseded
// fetch is cancelled and its result ignored.
type DataProvider interface {
	Fetch(ctx context.Context, q Query) ([]grid.Row, error)
}

// ProviderFunc adapts a function to DataProvider.
type ProviderFunc func(ctx context.Context, q Query) ([]grid.Row, error)

func (f ProviderFunc) Fetch(ctx context.Context, q Query) ([]grid.Row, error) {
	return f(ctx, q)
}
