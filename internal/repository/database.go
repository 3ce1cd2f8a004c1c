package repository

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type dailyPriceRow struct {
	Symbol string
	Day    time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

type pricesRepository interface {
	GetDailyPrices(ctx context.Context, symbols []string, start, end time.Time) ([]dailyPriceRow, error)
}

// Database is a Postgres-backed price provider over a daily_prices
// table. It satisfies marketdata.Provider.
type Database struct {
	prices pricesRepository
	pool   *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &Database{
		prices: pgxPrices{pool: pool},
		pool:   pool,
	}, nil
}

func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const dailyPricesQuery = `
SELECT symbol, day, open, high, low, close, volume
FROM daily_prices
WHERE symbol = ANY($1) AND day BETWEEN $2 AND $3
ORDER BY day, symbol`

type pgxPrices struct {
	pool *pgxpool.Pool
}

func (r pgxPrices) GetDailyPrices(ctx context.Context, symbols []string, start, end time.Time) ([]dailyPriceRow, error) {
	rows, err := r.pool.Query(ctx, dailyPricesQuery, symbols, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dailyPriceRow
	for rows.Next() {
		var row dailyPriceRow
		if err := rows.Scan(&row.Symbol, &row.Day, &row.Open, &row.High, &row.Low, &row.Close, &row.Volume); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
