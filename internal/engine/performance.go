package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"stratfolio/types"
)

const (
	tradingDaysPerYear = 252
	dateLayout         = "2006-01-02"
)

// ComputePerformance simulates holding the given price table from the
// first date on which every required symbol has a price. With weights
// it runs a share-accounted portfolio with optional periodic
// rebalancing; without weights it treats the table's single column as
// a benchmark normalized to the initial investment.
//
// The result is always structurally valid: inputs for which no common
// start date exists come back as an empty series with zero metrics and
// the initial investment as final value, never as an error.
func (e *Engine) ComputePerformance(table types.PriceTable, initialInvestment decimal.Decimal, weights map[string]float64, rebalance types.Rebalance) types.PerformanceResult {
	if table.Len() == 0 || !initialInvestment.GreaterThan(decimal.Zero) {
		return degenerateResult(initialInvestment)
	}

	startIdx, ok := commonStartIndex(table, weights)
	if !ok {
		return degenerateResult(initialInvestment)
	}

	dates := table.Dates[startIdx:]
	filled := fillColumns(table, startIdx)

	var values []decimal.Decimal
	if len(weights) > 0 {
		values = e.simulateWeighted(dates, filled, weights, initialInvestment, rebalance)
	} else {
		values = e.simulateSingle(dates, filled, table, initialInvestment)
	}
	if len(values) == 0 {
		return degenerateResult(initialInvestment)
	}
	return e.buildResult(dates, values, initialInvestment)
}

// commonStartIndex finds the latest per-symbol first-valid date over
// the required symbols: the weights' tickers that have a column, or
// every column when no weights are given. It reports false when a
// required symbol never has a price, or nothing is required at all.
func commonStartIndex(table types.PriceTable, weights map[string]float64) (int, bool) {
	var required []string
	if len(weights) > 0 {
		for sym := range weights {
			if table.HasSymbol(sym) {
				required = append(required, sym)
			}
		}
	} else {
		required = table.Symbols()
	}
	if len(required) == 0 {
		return 0, false
	}

	start := 0
	for _, sym := range required {
		col := table.Columns[sym]
		first := -1
		for i := range col {
			if col[i].Valid {
				first = i
				break
			}
		}
		if first < 0 {
			return 0, false
		}
		if first > start {
			start = first
		}
	}
	return start, true
}

// fillColumns materializes each column from startIdx on, forward-
// filling gaps with the last known price and back-filling anything
// before a symbol's first print. A column with no valid value at all
// stays at zero, which downstream turns into zero shares.
func fillColumns(table types.PriceTable, startIdx int) map[string][]decimal.Decimal {
	n := table.Len() - startIdx
	filled := make(map[string][]decimal.Decimal, len(table.Columns))
	for sym, col := range table.Columns {
		vals := make([]decimal.Decimal, n)
		last := decimal.NullDecimal{}
		for i := 0; i < n; i++ {
			if cell := col[startIdx+i]; cell.Valid {
				last = cell
			}
			if last.Valid {
				vals[i] = last.Decimal
			}
		}
		for i := 0; i < n; i++ {
			if cell := col[startIdx+i]; cell.Valid {
				for j := 0; j < i; j++ {
					vals[j] = cell.Decimal
				}
				break
			}
		}
		filled[sym] = vals
	}
	return filled
}

func (e *Engine) simulateWeighted(dates []time.Time, filled map[string][]decimal.Decimal, weights map[string]float64, initialInvestment decimal.Decimal, rebalance types.Rebalance) []decimal.Decimal {
	shares := targetShares(initialInvestment, weights, filled, 0)
	schedule := rebalanceSchedule(dates, rebalance)

	values := make([]decimal.Decimal, 0, len(dates))
	for i, day := range dates {
		total := decimal.Zero
		for sym := range weights {
			col, ok := filled[sym]
			if !ok {
				continue
			}
			total = total.Add(shares[sym].Mul(col[i]))
		}
		values = append(values, total)

		// Rebalancing on the very last date would never be observed.
		if schedule[dateKey(day)] && i < len(dates)-1 {
			shares = targetShares(total, weights, filled, i)
		}
		if e.onDay != nil {
			e.onDay(day)
		}
	}
	return values
}

// targetShares splits total across the weights at day i's prices. A
// ticker without a column, or with a zero price, gets zero shares
// rather than failing the run.
func targetShares(total decimal.Decimal, weights map[string]float64, filled map[string][]decimal.Decimal, i int) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(weights))
	for sym, w := range weights {
		col, ok := filled[sym]
		if !ok || col[i].IsZero() {
			shares[sym] = decimal.Zero
			continue
		}
		shares[sym] = total.Mul(decimal.NewFromFloat(w)).Div(col[i])
	}
	return shares
}

func (e *Engine) simulateSingle(dates []time.Time, filled map[string][]decimal.Decimal, table types.PriceTable, initialInvestment decimal.Decimal) []decimal.Decimal {
	symbols := table.Symbols()
	if len(symbols) == 0 {
		return nil
	}
	col := filled[symbols[0]]
	first := col[0]

	values := make([]decimal.Decimal, 0, len(dates))
	for i, day := range dates {
		if first.IsZero() {
			values = append(values, initialInvestment)
		} else {
			values = append(values, col[i].Div(first).Mul(initialInvestment))
		}
		if e.onDay != nil {
			e.onDay(day)
		}
	}
	return values
}

// rebalanceSchedule returns the calendar period-end business days that
// actually occur in the series, keyed by date string. Monthly uses
// every month-end, Quarterly Mar/Jun/Sep/Dec, Annually December.
func rebalanceSchedule(dates []time.Time, rebalance types.Rebalance) map[string]bool {
	schedule := make(map[string]bool)
	if rebalance == types.RebalanceNone || len(dates) == 0 {
		return schedule
	}

	present := make(map[string]bool, len(dates))
	for _, d := range dates {
		present[dateKey(d)] = true
	}

	first := midnight(dates[0])
	last := midnight(dates[len(dates)-1])
	for m := monthIndex(first); m <= monthIndex(last); m++ {
		month := time.Month(m%12 + 1)
		if !periodEndMonth(rebalance, month) {
			continue
		}
		d := lastBusinessDay(m/12, month)
		if d.Before(first) || d.After(last) {
			continue
		}
		if present[dateKey(d)] {
			schedule[dateKey(d)] = true
		}
	}
	return schedule
}

func periodEndMonth(rebalance types.Rebalance, month time.Month) bool {
	switch rebalance {
	case types.RebalanceMonthly:
		return true
	case types.RebalanceQuarterly:
		return month%3 == 0
	case types.RebalanceAnnually:
		return month == time.December
	}
	return false
}

func (e *Engine) buildResult(dates []time.Time, values []decimal.Decimal, initialInvestment decimal.Decimal) types.PerformanceResult {
	final := values[len(values)-1]
	totalReturn := final.Div(initialInvestment).InexactFloat64() - 1

	daysHeld := daysBetween(midnight(dates[0]), midnight(dates[len(dates)-1]))
	annualized := totalReturn
	if daysHeld >= 1 {
		annualized = math.Pow(1+totalReturn, 365.0/float64(daysHeld)) - 1
	}

	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = v.InexactFloat64()
	}

	out := types.PerformanceResult{
		Dates:            make([]string, len(dates)),
		Values:           make([]float64, len(floats)),
		TotalReturn:      roundFloat(totalReturn, 4),
		AnnualizedReturn: roundFloat(annualized, 4),
		MaxDrawdown:      roundFloat(calcMaxDrawdown(floats, initialInvestment.InexactFloat64()), 4),
		FinalValue:       roundFloat(final.InexactFloat64(), 2),
	}
	for i, d := range dates {
		out.Dates[i] = d.Format(dateLayout)
	}
	for i, v := range floats {
		out.Values[i] = roundFloat(v, 2)
	}
	if sharpe := e.calcSharpeRatio(floats); sharpe != nil {
		rounded := roundFloat(*sharpe, 2)
		out.SharpeRatio = &rounded
	}
	return out
}

// calcMaxDrawdown is the most negative value/running-peak - 1 on the
// cumulative-return curve, 0 when undefined. Always within [-1, 0] for
// non-negative value series.
func calcMaxDrawdown(values []float64, initial float64) float64 {
	if len(values) == 0 || initial == 0 {
		return 0
	}
	peak := math.Inf(-1)
	minDD := 0.0
	for _, v := range values {
		c := v / initial
		if c > peak {
			peak = c
		}
		if peak > 0 {
			if dd := c/peak - 1; dd < minDD {
				minDD = dd
			}
		}
	}
	if math.IsNaN(minDD) || math.IsInf(minDD, 0) {
		return 0
	}
	return minDD
}

// calcSharpeRatio annualizes the mean daily excess return over its
// sample standard deviation. Nil when the series is too short or has
// no variance.
func (e *Engine) calcSharpeRatio(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			return nil
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}

	mean := stat.Mean(returns, nil)
	std := stat.StdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}

	dailyRiskFree := math.Pow(1+e.riskFreeRate, 1.0/tradingDaysPerYear) - 1
	sharpe := (mean - dailyRiskFree) / std * math.Sqrt(tradingDaysPerYear)
	if math.IsNaN(sharpe) || math.IsInf(sharpe, 0) {
		return nil
	}
	return &sharpe
}

func degenerateResult(initialInvestment decimal.Decimal) types.PerformanceResult {
	return types.PerformanceResult{
		Dates:      []string{},
		Values:     []float64{},
		FinalValue: roundFloat(initialInvestment.InexactFloat64(), 2),
	}
}

func roundFloat(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func dateKey(t time.Time) string {
	return t.Format(dateLayout)
}
