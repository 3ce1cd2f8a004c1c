package engine

import (
	"errors"
	"sort"
	"time"

	"stratfolio/types"
)

var ErrNoBars = errors.New("no bars to resample")

// Resample aggregates a daily bar series into fixed-length periods.
// Buckets are right-closed and right-labeled: a day belongs to the
// bucket ending on or after it, and the bar carries the bucket's end
// date. Per bucket open is the first open, high the max, low the min,
// close the last close and volume the sum. Buckets with no underlying
// days are never emitted.
func Resample(daily []types.Bar, tf types.Timeframe) ([]types.Bar, error) {
	if len(daily) == 0 {
		return nil, ErrNoBars
	}
	if tf.N <= 0 {
		return nil, types.ErrUnknownTimeframe
	}

	bars := append([]types.Bar(nil), daily...)
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	// One-day buckets are the input itself.
	if tf.Unit == types.UnitDay && tf.N == 1 {
		return bars, nil
	}

	label := bucketLabelFunc(bars[0].Date, tf)

	var out []types.Bar
	var cur types.Bar
	var open bool
	for _, b := range bars {
		end := label(b.Date)
		if !open || !end.Equal(cur.Date) {
			if open {
				out = append(out, cur)
			}
			cur = b
			cur.Date = end
			open = true
			continue
		}
		if b.High.GreaterThan(cur.High) {
			cur.High = b.High
		}
		if b.Low.LessThan(cur.Low) {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume = cur.Volume.Add(b.Volume)
	}
	out = append(out, cur)
	return out, nil
}

// bucketLabelFunc returns the mapping from a day to its bucket's end
// date. Bucket edges are anchored at the series' first date: plain
// n-day spans for days, Friday edges spaced n weeks for weeks, and
// spans of n calendar months (labeled with the last business day of
// the final month) for months.
func bucketLabelFunc(first time.Time, tf types.Timeframe) func(time.Time) time.Time {
	switch tf.Unit {
	case types.UnitWeek:
		anchor := nextWeekday(midnight(first), time.Friday)
		span := 7 * tf.N
		return func(d time.Time) time.Time {
			diff := daysBetween(anchor, midnight(d))
			if diff <= 0 {
				return anchor
			}
			return anchor.AddDate(0, 0, ceilDiv(diff, span)*span)
		}
	case types.UnitMonth:
		anchorMonth := monthIndex(first)
		return func(d time.Time) time.Time {
			diff := monthIndex(d) - anchorMonth
			end := anchorMonth + ceilDiv(diff, tf.N)*tf.N
			return lastBusinessDay(end/12, time.Month(end%12+1))
		}
	default:
		anchor := midnight(first)
		return func(d time.Time) time.Time {
			diff := daysBetween(anchor, midnight(d))
			return anchor.AddDate(0, 0, ceilDiv(diff, tf.N)*tf.N)
		}
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func nextWeekday(t time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset)
}

// lastBusinessDay is the last Monday-Friday day of the given month.
func lastBusinessDay(year int, month time.Month) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
