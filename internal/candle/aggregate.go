package candle

import "time"

// Day is the native granularity of the daily series the provider returns.
const Day = 24 * time.Hour

// Aggregate regroups a daily series into coarser buckets of the given
// interval. An interval of zero or exactly one day returns the input
// unchanged.
//
// Buckets are anchored to the timestamp of whichever candle starts them, not
// to calendar boundaries: a candle joins the current bucket while its
// distance from the bucket's first candle stays below the interval, and the
// first candle that would reach the interval closes the bucket and opens the
// next one. Each bucket collapses to a single candle with the first open,
// the last close, the extreme high/low, the first timestamp, and the summed
// volume (nil when no candle in the bucket carried volume).
func Aggregate(s Series, interval time.Duration) Series {
	if interval == 0 || interval == Day {
		return s
	}
	if len(s) == 0 {
		return s
	}

	sorted := make(Series, len(s))
	copy(sorted, s)
	sorted.Sort()

	out := make(Series, 0, len(sorted))
	group := Series{sorted[0]}
	start := sorted[0].Timestamp

	for _, c := range sorted[1:] {
		if c.Timestamp.Sub(start) >= interval {
			out = append(out, collapse(group))
			group = Series{c}
			start = c.Timestamp
			continue
		}
		group = append(group, c)
	}
	return append(out, collapse(group))
}

// collapse folds a non-empty chronological bucket into one candle.
func collapse(group Series) Candle {
	agg := Candle{
		Timestamp: group[0].Timestamp,
		Open:      group[0].Open,
		Close:     group[len(group)-1].Close,
		High:      group[0].High,
		Low:       group[0].Low,
	}
	var volume float64
	var hasVolume bool
	for _, c := range group {
		if c.High > agg.High {
			agg.High = c.High
		}
		if c.Low < agg.Low {
			agg.Low = c.Low
		}
		if c.Volume != nil {
			volume += *c.Volume
			hasVolume = true
		}
	}
	if hasVolume {
		agg.Volume = &volume
	}
	return agg
}
