package engine

import "time"

// DefaultRiskFreeRate is the annual risk-free rate used for the Sharpe
// ratio when the config leaves it unset.
const DefaultRiskFreeRate = 0.02

type Config struct {
	RiskFreeRate float64
	// OnDay, when set, is invoked once per simulated trading day in
	// date order. Used by the CLI for progress display.
	OnDay func(day time.Time)
}

// Engine computes portfolio backtests and multi-timeframe analyses.
// It holds no mutable state; one Engine serves concurrent requests.
type Engine struct {
	riskFreeRate float64
	onDay        func(time.Time)
}

func NewEngine(cfg Config) *Engine {
	rate := cfg.RiskFreeRate
	if rate == 0 {
		rate = DefaultRiskFreeRate
	}
	return &Engine{
		riskFreeRate: rate,
		onDay:        cfg.OnDay,
	}
}
