package service

import (
	"context"
	"fmt"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/database/repository"
	"github.com/jask/gridcore/internal/grid"
)

// Provider serves a stored dataset to the controller.
//
// Search, filters and sort are always re-applied by the controller, so the
// provider may return a superset. With ServerSearch set it narrows rows in
// sqlite first, which only helps when the search term appears verbatim in the
// stored JSON.
type Provider struct {
	Rows         *repository.RowRepo
	DatasetID    string
	ServerSearch bool
}

var _ controller.DataProvider = (*Provider)(nil)

func (p *Provider) Fetch(ctx context.Context, q controller.Query) ([]grid.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rq := repository.RowQuery{}
	if p.ServerSearch {
		rq.Search = q.Search
	}
	if q.PageSize > 0 {
		rq.Limit = q.PageSize
		rq.Offset = max(q.Page, 0) * q.PageSize
	}
	rows, err := p.Rows.List(ctx, p.DatasetID, rq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.DatasetID, err)
	}
	return rows, nil
}

// Apply persists a committed cell edit.
func (p *Provider) Apply(ctx context.Context, ev controller.CellEditEvent, field string) error {
	if err := p.Rows.UpdateCell(ctx, p.DatasetID, ev.RowID, field, ev.NewValue); err != nil {
		return fmt.Errorf("save %s/%s: %w", ev.RowID, ev.ColumnID, err)
	}
	return nil
}
