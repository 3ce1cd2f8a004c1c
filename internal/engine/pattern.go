package engine

import "stratfolio/types"

// Pattern labels for the three-state bar taxonomy.
const (
	PatternInside  = "1"  // range strictly contained in the previous bar's
	PatternTwo     = "2"  // directional with flat close, or the first bar
	PatternTwoUp   = "2u" // directional up
	PatternTwoDown = "2d" // directional down
	PatternOutside = "3"  // range strictly engulfs the previous bar's
)

// Classify labels every bar against its immediate predecessor. The
// first bar is always "2". The result has the same length and order
// as the input.
func Classify(bars []types.Bar) []string {
	labels := make([]string, 0, len(bars))
	for i, b := range bars {
		if i == 0 {
			labels = append(labels, PatternTwo)
			continue
		}
		labels = append(labels, classifyPair(bars[i-1], b))
	}
	return labels
}

// classifyPair evaluates the rules in a fixed order; the first match
// wins. A bar whose range exactly equals its predecessor's is neither
// inside nor outside: it falls through to a close-direction tie-break
// ("2u" on a close at or above the previous close, "2d" below).
func classifyPair(prev, curr types.Bar) string {
	sameHigh := curr.High.Equal(prev.High)
	sameLow := curr.Low.Equal(prev.Low)

	switch {
	case !curr.High.GreaterThan(prev.High) && !curr.Low.LessThan(prev.Low) && !(sameHigh && sameLow):
		return PatternInside
	case curr.High.GreaterThan(prev.High) && curr.Low.LessThan(prev.Low):
		return PatternOutside
	case sameHigh && sameLow:
		if curr.Close.GreaterThanOrEqual(prev.Close) {
			return PatternTwoUp
		}
		return PatternTwoDown
	case curr.Close.GreaterThan(prev.Close):
		return PatternTwoUp
	case curr.Close.LessThan(prev.Close):
		return PatternTwoDown
	default:
		return PatternTwo
	}
}
