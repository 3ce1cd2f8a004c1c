package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stratfolio/internal/marketdata"
	"stratfolio/types"
)

func (db *Database) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (types.PriceTable, error) {
	rows, err := db.prices.GetDailyPrices(ctx, symbols, start, end)
	if err != nil {
		return types.PriceTable{}, err
	}
	if len(rows) == 0 {
		return types.PriceTable{}, marketdata.ErrNoData
	}

	table := tableFromRows(rows)
	for _, s := range symbols {
		if !table.HasSymbol(s) {
			return types.PriceTable{}, fmt.Errorf("%s: %w", s, marketdata.ErrSymbolMissing)
		}
	}
	return table, nil
}

func (db *Database) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	rows, err := db.prices.GetDailyPrices(ctx, []string{symbol}, start, end)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, marketdata.ErrNoData)
	}

	bars := make([]types.Bar, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, types.Bar{
			Date:   normalizeDay(row.Day),
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func tableFromRows(rows []dailyPriceRow) types.PriceTable {
	bySymbol := make(map[string]map[string]decimal.Decimal)
	dateSet := make(map[string]time.Time)

	for _, row := range rows {
		day := normalizeDay(row.Day)
		key := day.Format("2006-01-02")
		dateSet[key] = day
		if bySymbol[row.Symbol] == nil {
			bySymbol[row.Symbol] = make(map[string]decimal.Decimal)
		}
		bySymbol[row.Symbol][key] = row.Close
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := types.PriceTable{
		Dates:   dates,
		Columns: make(map[string][]decimal.NullDecimal, len(bySymbol)),
	}
	for symbol, s := range bySymbol {
		col := make([]decimal.NullDecimal, len(dates))
		for i, d := range dates {
			if price, ok := s[d.Format("2006-01-02")]; ok {
				col[i] = decimal.NullDecimal{Decimal: price, Valid: true}
			}
		}
		table.Columns[symbol] = col
	}
	return table
}

func normalizeDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
