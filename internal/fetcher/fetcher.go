// Package fetcher layers the cache-first lookup policy on top of the market
// client. Fetch failures never propagate past this boundary: every result
// carries the zero-value sentinel the views expect plus an explicit OK flag
// so callers can tell failure apart from a legitimate zero.
package fetcher

import (
	"context"

	"github.com/jxdarker/Stocklio/internal/market"
)

// QuoteService is the slice of the market client the price and rate
// fetchers consume.
type QuoteService interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
}

// ChartService is the slice of the market client the history fetcher
// consumes.
type ChartService interface {
	Chart(ctx context.Context, symbol, rng, interval string) (market.Chart, error)
}
