package types

import (
	"errors"
	"strconv"
)

type TimeframeUnit string

const (
	UnitDay   TimeframeUnit = "d"
	UnitWeek  TimeframeUnit = "w"
	UnitMonth TimeframeUnit = "m"
)

// Timeframe is a resampling period: N units of day, week or month.
type Timeframe struct {
	Unit TimeframeUnit
	N    int
}

var ErrUnknownTimeframe = errors.New("unknown timeframe specifier")

// ParseTimeframe parses a timeframe specifier. "D", "W" and "M" are the
// canonical single-period forms; custom periods are "<n><unit>" with a
// lowercase unit, e.g. "2d", "5w", "3m".
func ParseTimeframe(spec string) (Timeframe, error) {
	switch spec {
	case "D":
		return Timeframe{Unit: UnitDay, N: 1}, nil
	case "W":
		return Timeframe{Unit: UnitWeek, N: 1}, nil
	case "M":
		return Timeframe{Unit: UnitMonth, N: 1}, nil
	}
	if len(spec) < 2 {
		return Timeframe{}, ErrUnknownTimeframe
	}
	unit := TimeframeUnit(spec[len(spec)-1:])
	switch unit {
	case UnitDay, UnitWeek, UnitMonth:
	default:
		return Timeframe{}, ErrUnknownTimeframe
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, ErrUnknownTimeframe
	}
	return Timeframe{Unit: unit, N: n}, nil
}
