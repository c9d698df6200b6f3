// Package candle holds OHLCV records and the interval re-bucketing used by
// the chart views.
package candle

import (
	"math"
	"sort"
	"time"
)

// Candle is one open-high-low-close record for a time bucket. Volume is nil
// when the provider reported none for the bucket.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    *float64  `json:"volume,omitempty"`
}

// Rising reports whether the candle closed at or above its open.
func (c Candle) Rising() bool { return c.Close >= c.Open }

// ChangePercent returns the close-over-open change in percent.
func (c Candle) ChangePercent() float64 {
	if c.Open <= 0 {
		return 0
	}
	return (c.Close - c.Open) / c.Open * 100
}

// Valid reports whether all OHLC values are positive and finite.
func (c Candle) Valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Series is a candle sequence ordered ascending by timestamp.
type Series []Candle

// Sort stable-sorts the series ascending by timestamp in place.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}
