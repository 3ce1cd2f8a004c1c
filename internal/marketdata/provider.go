// Package marketdata supplies daily historical prices to the engine.
// Every provider returns the same canonical shapes (a PriceTable for
// multi-symbol closes, a []Bar for one symbol's OHLCV) so the core
// never branches on where the data came from.
package marketdata

import (
	"context"
	"errors"
	"time"

	"stratfolio/types"
)

// Global error declarations.
var (
	ErrNoData        = errors.New("no price data for requested range")
	ErrSymbolMissing = errors.New("symbol missing from data source")
)

type Provider interface {
	// FetchCloses returns a date-aligned table of canonical (adjusted)
	// closing prices for all symbols in one call.
	FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (types.PriceTable, error)
	// FetchDailyBars returns one symbol's daily OHLCV series, ordered
	// by date.
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)
}
