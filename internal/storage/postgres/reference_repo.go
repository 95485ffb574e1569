package postgres

import (
	"context"

	"github.com/caldera-energy/pricefeed/internal/errs"
)

// EnsureCommodity inserts symbol into commodities if absent and
// returns its id, upsert-on-first-sight.
func (a *Adapter) EnsureCommodity(ctx context.Context, symbol string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	const query = `
		INSERT INTO commodities (symbol, name)
		VALUES ($1, $1)
		ON CONFLICT (symbol) DO UPDATE SET symbol = EXCLUDED.symbol
		RETURNING id`

	var id int64
	if err := a.db.GetContext(ctx, &id, query, symbol); err != nil {
		return 0, errs.New(errs.Storage, "postgres", "ensure commodity", err)
	}
	return id, nil
}

// EnsureSource inserts name into data_sources if absent and returns
// its id.
func (a *Adapter) EnsureSource(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	const query = `
		INSERT INTO data_sources (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id int64
	if err := a.db.GetContext(ctx, &id, query, name); err != nil {
		return 0, errs.New(errs.Storage, "postgres", "ensure data source", err)
	}
	return id, nil
}
