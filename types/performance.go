package types

// PerformanceResult is the outcome of one backtest run, for either the
// weighted portfolio or the benchmark. Values are aligned with Dates.
// SharpeRatio is nil when it is undefined (fewer than two points or
// zero return variance).
type PerformanceResult struct {
	Dates            []string  `json:"dates"`
	Values           []float64 `json:"values"`
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	FinalValue       float64   `json:"final_value"`
	SharpeRatio      *float64  `json:"sharpe_ratio"`
}
