package fetcher

import (
	"context"
	"log"
	"time"

	"github.com/jxdarker/Stocklio/internal/candle"
	"github.com/jxdarker/Stocklio/internal/market"
)

// Defaults for chart requests: one year of daily candles.
const (
	DefaultRange    = "1y"
	DefaultInterval = "1d"
)

// HistoryFetcher fetches and validates historical candle series. An empty
// series is a valid outcome meaning "no data"; structural failures degrade
// to it rather than surfacing as errors.
type HistoryFetcher struct {
	charts ChartService
}

func NewHistoryFetcher(charts ChartService) *HistoryFetcher {
	return &HistoryFetcher{charts: charts}
}

// DailySeries returns the fixed-range daily series used by the chart views.
func (f *HistoryFetcher) DailySeries(ctx context.Context, symbol string) candle.Series {
	return f.Series(ctx, symbol, DefaultRange, DefaultInterval)
}

// Series fetches candles for the given range and native interval, drops
// records with missing or non-positive values, repairs the high/low
// envelope, and returns them sorted ascending by timestamp.
func (f *HistoryFetcher) Series(ctx context.Context, symbol, rng, interval string) candle.Series {
	sym := market.NormalizeSymbol(symbol)
	chart, err := f.charts.Chart(ctx, sym, rng, interval)
	if err != nil {
		log.Printf("history fetch failed for %s: %v", sym, err)
		return nil
	}

	series := make(candle.Series, 0, len(chart.Timestamps))
	for i, ts := range chart.Timestamps {
		c := candle.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      deref(chart.Open, i),
			High:      deref(chart.High, i),
			Low:       deref(chart.Low, i),
			Close:     deref(chart.Close, i),
		}
		if !c.Valid() {
			continue
		}
		// The provider does not guarantee the envelope; repair it so
		// downstream aggregation can rely on high >= open,close >= low.
		if c.Open > c.High {
			c.High = c.Open
		}
		if c.Close > c.High {
			c.High = c.Close
		}
		if c.Open < c.Low {
			c.Low = c.Open
		}
		if c.Close < c.Low {
			c.Low = c.Close
		}
		if i < len(chart.Volume) && chart.Volume[i] != nil {
			v := *chart.Volume[i]
			c.Volume = &v
		}
		series = append(series, c)
	}
	series.Sort()
	return series
}

// deref reads slot i of a chart array, mapping missing slots to 0 so the
// candle fails validation.
func deref(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}
