package types

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceTable is a date-aligned table of canonical prices: one row per
// trading date, one column per symbol. Dates are strictly increasing.
// A cell with Valid=false means the symbol had no price on that date
// (not yet listed, halted, delisted).
type PriceTable struct {
	Dates   []time.Time
	Columns map[string][]decimal.NullDecimal
}

func (t PriceTable) Len() int {
	return len(t.Dates)
}

func (t PriceTable) Symbols() []string {
	symbols := make([]string, 0, len(t.Columns))
	for s := range t.Columns {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

func (t PriceTable) HasSymbol(symbol string) bool {
	_, ok := t.Columns[symbol]
	return ok
}

// Select returns a table restricted to the given symbols, sharing the
// same date axis. The second return is false when any symbol has no
// column in the table.
func (t PriceTable) Select(symbols ...string) (PriceTable, bool) {
	out := PriceTable{
		Dates:   t.Dates,
		Columns: make(map[string][]decimal.NullDecimal, len(symbols)),
	}
	for _, s := range symbols {
		col, ok := t.Columns[s]
		if !ok {
			return PriceTable{}, false
		}
		out.Columns[s] = col
	}
	return out, true
}
