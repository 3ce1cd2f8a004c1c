package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV observation over a period. For resampled series the
// Date is the period's right label (the last day of the bucket).
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}
