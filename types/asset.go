package types

// Asset is one portfolio leg: a ticker and its target weight in (0, 1].
// A valid portfolio's weights sum to 1 within WeightSumTolerance.
type Asset struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// WeightSumTolerance is how far the sum of portfolio weights may drift
// from 1 before the request is rejected.
const WeightSumTolerance = 1e-4

type Rebalance string

const (
	RebalanceNone      Rebalance = ""
	RebalanceMonthly   Rebalance = "Monthly"
	RebalanceQuarterly Rebalance = "Quarterly"
	RebalanceAnnually  Rebalance = "Annually"
)

var ConvertRebalance = map[string]Rebalance{
	"":          RebalanceNone,
	"Monthly":   RebalanceMonthly,
	"Quarterly": RebalanceQuarterly,
	"Annually":  RebalanceAnnually,
}
