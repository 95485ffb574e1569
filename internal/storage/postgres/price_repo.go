// Package postgres implements storage.Adapter against PostgreSQL via
// sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/caldera-energy/pricefeed/internal/errs"
	"github.com/caldera-energy/pricefeed/internal/model"
	"github.com/caldera-energy/pricefeed/internal/storage"
)

// Adapter implements storage.Adapter against a sqlx.DB.
type Adapter struct {
	db      *sqlx.DB
	timeout time.Duration
}

// New constructs an Adapter. timeout bounds every individual query;
// UpsertBatch scales it by batch size so large batches get a
// proportionally longer transaction deadline.
func New(db *sqlx.DB, timeout time.Duration) *Adapter {
	return &Adapter{db: db, timeout: timeout}
}

type priceRow struct {
	Timestamp time.Time `db:"ts"`
	Commodity string    `db:"commodity"`
	Source    string    `db:"source"`
	Price     float64   `db:"price"`
	Volume    *float64  `db:"volume"`
	Open      *float64  `db:"open"`
	High      *float64  `db:"high"`
	Low       *float64  `db:"low"`
	Close     *float64  `db:"close"`
}

// UpsertBatch writes records inside one transaction, upserting on the
// (timestamp, commodity_id, source_id) unique constraint.
func (a *Adapter) UpsertBatch(ctx context.Context, records []model.PriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout*time.Duration(len(records)/100+1))
	defer cancel()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errs.New(errs.Storage, "postgres", "begin transaction", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO price_data (ts, commodity_id, source_id, price, volume, open, high, low, close)
		SELECT $1, c.id, s.id, $4, $5, $6, $7, $8, $9
		FROM commodities c, data_sources s
		WHERE c.symbol = $2 AND s.name = $3
		ON CONFLICT (ts, commodity_id, source_id) DO UPDATE SET
			price = EXCLUDED.price,
			volume = EXCLUDED.volume,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, errs.New(errs.Storage, "postgres", "prepare upsert statement", err)
	}
	defer stmt.Close()

	stored := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx, r.Timestamp, r.Commodity, r.Source, r.Price, r.Volume, r.Open, r.High, r.Low, r.Close)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return stored, errs.New(errs.Storage, "postgres", "constraint violation ("+pqErr.Code.Name()+")", err)
			}
			return stored, errs.New(errs.Storage, "postgres", "upsert record", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			stored += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return stored, errs.New(errs.Storage, "postgres", "commit transaction", err)
	}
	return stored, nil
}

// GetLatestTimestamp returns the newest stored ts for commodity/source.
func (a *Adapter) GetLatestTimestamp(ctx context.Context, commodity, source string) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	const query = `
		SELECT p.ts FROM price_data p
		JOIN commodities c ON c.id = p.commodity_id
		JOIN data_sources s ON s.id = p.source_id
		WHERE c.symbol = $1 AND s.name = $2
		ORDER BY p.ts DESC LIMIT 1`

	var ts time.Time
	err := a.db.GetContext(ctx, &ts, query, commodity, source)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errs.New(errs.Storage, "postgres", "query latest timestamp", err)
	}
	return ts, true, nil
}

// GetLatestFor returns the most recent record for commodity/source.
func (a *Adapter) GetLatestFor(ctx context.Context, commodity, source string) (model.PriceRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	const query = `
		SELECT p.ts, c.symbol AS commodity, s.name AS source, p.price, p.volume, p.open, p.high, p.low, p.close
		FROM price_data p
		JOIN commodities c ON c.id = p.commodity_id
		JOIN data_sources s ON s.id = p.source_id
		WHERE c.symbol = $1 AND s.name = $2
		ORDER BY p.ts DESC LIMIT 1`

	var row priceRow
	err := a.db.GetContext(ctx, &row, query, commodity, source)
	if err == sql.ErrNoRows {
		return model.PriceRecord{}, false, nil
	}
	if err != nil {
		return model.PriceRecord{}, false, errs.New(errs.Storage, "postgres", "query latest record", err)
	}
	return toPriceRecord(row), true, nil
}

// GetRange returns every record for commodity/source within tr,
// ascending by timestamp.
func (a *Adapter) GetRange(ctx context.Context, commodity, source string, tr model.TimeRange) ([]model.PriceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	const query = `
		SELECT p.ts, c.symbol AS commodity, s.name AS source, p.price, p.volume, p.open, p.high, p.low, p.close
		FROM price_data p
		JOIN commodities c ON c.id = p.commodity_id
		JOIN data_sources s ON s.id = p.source_id
		WHERE c.symbol = $1 AND s.name = $2 AND p.ts >= $3 AND p.ts <= $4
		ORDER BY p.ts ASC`

	var rows []priceRow
	if err := a.db.SelectContext(ctx, &rows, query, commodity, source, tr.Start, tr.End); err != nil {
		return nil, errs.New(errs.Storage, "postgres", "query range", err)
	}

	records := make([]model.PriceRecord, len(rows))
	for i, row := range rows {
		records[i] = toPriceRecord(row)
	}
	return records, nil
}

// GetStatistics summarizes commodity's stored history aggregated
// across every source, optionally bounded to [start, end]. A zero
// start or end leaves that bound open.
func (a *Adapter) GetStatistics(ctx context.Context, commodity string, start, end time.Time) (storage.Statistics, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	const query = `
		SELECT COUNT(*) AS count, MIN(p.price) AS min_price, MAX(p.price) AS max_price,
		       AVG(p.price) AS avg_price, COALESCE(SUM(p.volume), 0) AS total_volume,
		       MIN(p.ts) AS earliest_at, MAX(p.ts) AS latest_at
		FROM price_data p
		JOIN commodities c ON c.id = p.commodity_id
		WHERE c.symbol = $1
		  AND ($2::timestamptz IS NULL OR p.ts >= $2)
		  AND ($3::timestamptz IS NULL OR p.ts <= $3)`

	var row struct {
		Count       int             `db:"count"`
		MinPrice    sql.NullFloat64 `db:"min_price"`
		MaxPrice    sql.NullFloat64 `db:"max_price"`
		AvgPrice    sql.NullFloat64 `db:"avg_price"`
		TotalVolume sql.NullFloat64 `db:"total_volume"`
		EarliestAt  sql.NullTime    `db:"earliest_at"`
		LatestAt    sql.NullTime    `db:"latest_at"`
	}

	startArg := nullableTime(start)
	endArg := nullableTime(end)
	if err := a.db.GetContext(ctx, &row, query, commodity, startArg, endArg); err != nil {
		return storage.Statistics{}, errs.New(errs.Storage, "postgres", "query statistics", err)
	}

	return storage.Statistics{
		Count:       row.Count,
		MinPrice:    row.MinPrice.Float64,
		MaxPrice:    row.MaxPrice.Float64,
		AvgPrice:    row.AvgPrice.Float64,
		TotalVolume: row.TotalVolume.Float64,
		EarliestAt:  row.EarliestAt.Time,
		LatestAt:    row.LatestAt.Time,
	}, nil
}

// nullableTime turns a zero time.Time into a SQL NULL so an open
// bound in GetStatistics leaves the corresponding WHERE clause
// unconstrained.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func toPriceRecord(row priceRow) model.PriceRecord {
	return model.PriceRecord{
		Timestamp: row.Timestamp,
		Commodity: row.Commodity,
		Source:    row.Source,
		Price:     row.Price,
		Volume:    row.Volume,
		Open:      row.Open,
		High:      row.High,
		Low:       row.Low,
		Close:     row.Close,
	}
}
