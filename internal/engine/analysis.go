package engine

import (
	"log/slog"

	"stratfolio/types"
)

// DefaultTimeframes is the analysis set used when a request names none.
var DefaultTimeframes = []string{"D", "W", "M", "2d", "3d", "10d", "2w", "5w", "10w"}

// TimeframeSeries is one resampled, classified series as parallel
// arrays. All slices share the same length and index alignment.
type TimeframeSeries struct {
	Dates    []string  `json:"dates"`
	Open     []float64 `json:"open"`
	High     []float64 `json:"high"`
	Low      []float64 `json:"low"`
	Close    []float64 `json:"close"`
	Volume   []int64   `json:"volume"`
	Patterns []string  `json:"patterns"`
}

// AnalyzeTimeframes resamples the daily series into every requested
// timeframe and labels each bar against its predecessor. Specifiers
// that do not parse are skipped, not rejected.
func (e *Engine) AnalyzeTimeframes(daily []types.Bar, specs []string) (map[string]TimeframeSeries, error) {
	if len(specs) == 0 {
		specs = DefaultTimeframes
	}

	out := make(map[string]TimeframeSeries, len(specs))
	for _, spec := range specs {
		tf, err := types.ParseTimeframe(spec)
		if err != nil {
			slog.Debug("skipping unrecognized timeframe", "spec", spec)
			continue
		}
		bars, err := Resample(daily, tf)
		if err != nil {
			return nil, err
		}
		out[spec] = newTimeframeSeries(bars, Classify(bars))
	}
	return out, nil
}

func newTimeframeSeries(bars []types.Bar, patterns []string) TimeframeSeries {
	s := TimeframeSeries{
		Dates:    make([]string, len(bars)),
		Open:     make([]float64, len(bars)),
		High:     make([]float64, len(bars)),
		Low:      make([]float64, len(bars)),
		Close:    make([]float64, len(bars)),
		Volume:   make([]int64, len(bars)),
		Patterns: patterns,
	}
	for i, b := range bars {
		s.Dates[i] = b.Date.Format(dateLayout)
		s.Open[i] = roundFloat(b.Open.InexactFloat64(), 2)
		s.High[i] = roundFloat(b.High.InexactFloat64(), 2)
		s.Low[i] = roundFloat(b.Low.InexactFloat64(), 2)
		s.Close[i] = roundFloat(b.Close.InexactFloat64(), 2)
		s.Volume[i] = b.Volume.IntPart()
	}
	return s
}
