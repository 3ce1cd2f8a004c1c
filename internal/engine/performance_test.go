package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stratfolio/types"
)

func priceTable(dates []time.Time, columns map[string][]float64) types.PriceTable {
	t := types.PriceTable{
		Dates:   dates,
		Columns: make(map[string][]decimal.NullDecimal, len(columns)),
	}
	for sym, prices := range columns {
		col := make([]decimal.NullDecimal, len(prices))
		for i, p := range prices {
			if p > 0 {
				col[i] = decimal.NullDecimal{Decimal: decimal.NewFromFloat(p), Valid: true}
			}
		}
		t.Columns[sym] = col
	}
	return t
}

func weekdays(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	d := start
	for len(dates) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates
}

func TestComputePerformanceFlatPrices(t *testing.T) {
	dates := weekdays(day(2026, time.January, 5), 3)
	table := priceTable(dates, map[string][]float64{
		"AAA": {50, 50, 50},
		"BBB": {25, 25, 25},
	})
	eng := NewEngine(Config{})

	got := eng.ComputePerformance(table, decimal.NewFromInt(10000), map[string]float64{"AAA": 0.6, "BBB": 0.4}, types.RebalanceNone)

	if len(got.Values) != 3 {
		t.Fatalf("len(Values) = %d, want 3", len(got.Values))
	}
	for i, v := range got.Values {
		if v != 10000 {
			t.Errorf("Values[%d] = %v, want 10000", i, v)
		}
	}
	if got.TotalReturn != 0 {
		t.Errorf("TotalReturn = %v, want 0", got.TotalReturn)
	}
	if got.FinalValue != 10000 {
		t.Errorf("FinalValue = %v, want 10000", got.FinalValue)
	}
	if got.MaxDrawdown != 0 {
		t.Errorf("MaxDrawdown = %v, want 0", got.MaxDrawdown)
	}
	if got.SharpeRatio != nil {
		t.Errorf("SharpeRatio = %v, want nil on zero variance", *got.SharpeRatio)
	}
}

func TestComputePerformanceWeightedGrowth(t *testing.T) {
	dates := weekdays(day(2026, time.January, 5), 3)
	table := priceTable(dates, map[string][]float64{
		"AAA": {100, 110, 121},
		"BBB": {50, 50, 50},
	})
	eng := NewEngine(Config{})

	got := eng.ComputePerformance(table, decimal.NewFromInt(10000), map[string]float64{"AAA": 0.5, "BBB": 0.5}, types.RebalanceNone)

	// 50 shares of AAA and 100 of BBB, so only the AAA leg grows.
	want := []float64{10000, 10500, 11050}
	for i, v := range got.Values {
		if v != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, v, want[i])
		}
	}
	if got.TotalReturn != 0.105 {
		t.Errorf("TotalReturn = %v, want 0.105", got.TotalReturn)
	}
	if got.FinalValue != 11050 {
		t.Errorf("FinalValue = %v, want 11050", got.FinalValue)
	}
	if got.MaxDrawdown != 0 {
		t.Errorf("MaxDrawdown = %v, want 0 on a rising series", got.MaxDrawdown)
	}
	if got.SharpeRatio == nil {
		t.Error("SharpeRatio = nil, want a value on a varying series")
	}
}

func TestComputePerformanceDrawdown(t *testing.T) {
	dates := weekdays(day(2026, time.January, 5), 4)
	table := priceTable(dates, map[string][]float64{
		"AAA": {100, 120, 90, 110},
	})
	eng := NewEngine(Config{})

	got := eng.ComputePerformance(table, decimal.NewFromInt(10000), map[string]float64{"AAA": 1}, types.RebalanceNone)

	// Peak 12000, trough 9000: 9000/12000 - 1.
	if got.MaxDrawdown != -0.25 {
		t.Errorf("MaxDrawdown = %v, want -0.25", got.MaxDrawdown)
	}
	if got.MaxDrawdown < -1 || got.MaxDrawdown > 0 {
		t.Errorf("MaxDrawdown = %v, want within [-1, 0]", got.MaxDrawdown)
	}
}

func TestComputePerformanceBenchmark(t *testing.T) {
	dates := weekdays(day(2026, time.January, 5), 3)
	table := priceTable(dates, map[string][]float64{
		"SPY": {50, 55, 60},
	})
	eng := NewEngine(Config{})

	// No weights: the single column is normalized to the investment.
	got := eng.ComputePerformance(table, decimal.NewFromInt(10000), nil, types.RebalanceNone)

	want := []float64{10000, 11000, 12000}
	if len(got.Values) != len(want) {
		t.Fatalf("len(Values) = %d, want %d", len(got.Values), len(want))
	}
	for i, v := range got.Values {
		if v != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, v, want[i])
		}
	}
	if got.TotalReturn != 0.2 {
		t.Errorf("TotalReturn = %v, want 0.2", got.TotalReturn)
	}
}

func TestComputePerformanceCommonStart(t *testing.T) {
	dates := weekdays(day(2026, time.January, 5), 4)
	// BBB lists two days late; the run starts at its first print.
	table := priceTable(dates, map[string][]float64{
		"AAA": {100, 100, 100, 100},
		"BBB": {0, 0, 50, 50},
	})
	eng := NewEngine(Config{})

	got := eng.ComputePerformance(table, decimal.NewFromInt(10000), map[string]float64{"AAA": 0.5, "BBB": 0.5}, types.RebalanceNone)

	if len(got.Dates) != 2 {
		t.Fatalf("len(Dates) = %d, want 2", len(got.Dates))
	}
	if got.Dates[0] != dates[2].Format("2006-01-02") {
		t.Errorf("Dates[0] = %s, want %s", got.Dates[0], dates[2].Format("2006-01-02"))
	}
	if got.Values[0] != 10000 {
		t.Errorf("Values[0] = %v, want 10000", got.Values[0])
	}
}

func TestComputePerformanceNoData(t *testing.T) {
	tests := []struct {
		name  string
		table types.PriceTable
	}{
		{"empty table", types.PriceTable{}},
		{
			"all-null column",
			priceTable(weekdays(day(2026, time.January, 5), 3), map[string][]float64{
				"AAA": {0, 0, 0},
			}),
		},
	}
	eng := NewEngine(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.ComputePerformance(tt.table, decimal.NewFromInt(10000), map[string]float64{"AAA": 1}, types.RebalanceNone)
			if len(got.Dates) != 0 || len(got.Values) != 0 {
				t.Errorf("got %d dates, %d values, want empty series", len(got.Dates), len(got.Values))
			}
			if got.FinalValue != 10000 {
				t.Errorf("FinalValue = %v, want the initial investment", got.FinalValue)
			}
			if got.SharpeRatio != nil {
				t.Errorf("SharpeRatio = %v, want nil", *got.SharpeRatio)
			}
		})
	}
}

func TestComputePerformanceMonthlyRebalance(t *testing.T) {
	// Jan 30 2026 is January's last business day. BBB doubles into it,
	// then gives the gain back. Rebalancing locks half the gain into
	// AAA; without it the portfolio round-trips to its start.
	dates := []time.Time{
		day(2026, time.January, 29),
		day(2026, time.January, 30),
		day(2026, time.February, 2),
	}
	columns := map[string][]float64{
		"AAA": {100, 100, 100},
		"BBB": {100, 200, 100},
	}
	weights := map[string]float64{"AAA": 0.5, "BBB": 0.5}
	eng := NewEngine(Config{})

	rebalanced := eng.ComputePerformance(priceTable(dates, columns), decimal.NewFromInt(10000), weights, types.RebalanceMonthly)
	held := eng.ComputePerformance(priceTable(dates, columns), decimal.NewFromInt(10000), weights, types.RebalanceNone)

	wantRebalanced := []float64{10000, 15000, 11250}
	wantHeld := []float64{10000, 15000, 10000}
	for i := range dates {
		if rebalanced.Values[i] != wantRebalanced[i] {
			t.Errorf("rebalanced Values[%d] = %v, want %v", i, rebalanced.Values[i], wantRebalanced[i])
		}
		if held.Values[i] != wantHeld[i] {
			t.Errorf("held Values[%d] = %v, want %v", i, held.Values[i], wantHeld[i])
		}
	}
}

func TestComputePerformanceRebalanceSkipsLastDate(t *testing.T) {
	// The series ends on the rebalance date itself; value must not
	// change just because the date qualifies.
	dates := []time.Time{
		day(2026, time.January, 29),
		day(2026, time.January, 30),
	}
	columns := map[string][]float64{
		"AAA": {100, 100},
		"BBB": {100, 200},
	}
	eng := NewEngine(Config{})

	got := eng.ComputePerformance(priceTable(dates, columns), decimal.NewFromInt(10000), map[string]float64{"AAA": 0.5, "BBB": 0.5}, types.RebalanceMonthly)
	if got.FinalValue != 15000 {
		t.Errorf("FinalValue = %v, want 15000", got.FinalValue)
	}
}

func TestRebalanceSchedule(t *testing.T) {
	// Trading days across 2025 year-end. Dec 31 2025 is a Wednesday.
	dates := weekdays(day(2025, time.September, 1), 120)

	tests := []struct {
		name      string
		rebalance types.Rebalance
		wantDays  []string
	}{
		{"none", types.RebalanceNone, nil},
		{"monthly", types.RebalanceMonthly, []string{"2025-09-30", "2025-10-31", "2025-11-28", "2025-12-31", "2026-01-30"}},
		{"quarterly", types.RebalanceQuarterly, []string{"2025-09-30", "2025-12-31"}},
		{"annually", types.RebalanceAnnually, []string{"2025-12-31"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rebalanceSchedule(dates, tt.rebalance)
			if len(got) != len(tt.wantDays) {
				t.Fatalf("schedule size = %d, want %d (%v)", len(got), len(tt.wantDays), got)
			}
			for _, d := range tt.wantDays {
				if !got[d] {
					t.Errorf("schedule missing %s", d)
				}
			}
		})
	}
}

func TestCalcSharpeRatio(t *testing.T) {
	eng := NewEngine(Config{})
	tests := []struct {
		name    string
		values  []float64
		wantNil bool
	}{
		{"too short", []float64{10000}, true},
		{"zero variance", []float64{10000, 10000, 10000}, true},
		{"zero predecessor", []float64{0, 10000}, true},
		{"varying", []float64{10000, 10100, 10050, 10200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.calcSharpeRatio(tt.values)
			if (got == nil) != tt.wantNil {
				t.Errorf("calcSharpeRatio() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}

func TestOnDayHook(t *testing.T) {
	var seen []time.Time
	eng := NewEngine(Config{OnDay: func(d time.Time) { seen = append(seen, d) }})

	dates := weekdays(day(2026, time.January, 5), 3)
	table := priceTable(dates, map[string][]float64{"AAA": {100, 100, 100}})
	eng.ComputePerformance(table, decimal.NewFromInt(10000), map[string]float64{"AAA": 1}, types.RebalanceNone)

	if len(seen) != 3 {
		t.Fatalf("hook fired %d times, want 3", len(seen))
	}
	for i, d := range dates {
		if !seen[i].Equal(d) {
			t.Errorf("hook day %d = %v, want %v", i, seen[i], d)
		}
	}
}
