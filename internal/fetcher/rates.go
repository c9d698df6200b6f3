package fetcher

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jxdarker/Stocklio/internal/cache"
	"github.com/jxdarker/Stocklio/internal/currency"
	"github.com/jxdarker/Stocklio/internal/market"
)

// RateEntry is the cached record for one currency pair. The rate expresses
// "1 unit of FROM equals rate units of TO" for the keyed direction only;
// the reverse pair is never derived.
type RateEntry struct {
	Rate      float64
	FetchedAt time.Time
}

// Rate is the outcome of a rate lookup. When OK is false the fetch failed
// and Value holds the 0.0 sentinel.
type Rate struct {
	Value     float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
	OK        bool      `json:"ok"`
	Cached    bool      `json:"cached"`
}

// PairKey builds the direction-sensitive cache key for a currency pair.
func PairKey(from, to currency.Currency) string {
	return from.String() + "-" + to.String()
}

// RateFetcher resolves exchange rates cache-first via the provider's
// synthetic FX-pair quotes.
type RateFetcher struct {
	quotes QuoteService
	cache  *cache.Store[RateEntry]
	group  singleflight.Group
}

func NewRateFetcher(quotes QuoteService, store *cache.Store[RateEntry]) *RateFetcher {
	return &RateFetcher{quotes: quotes, cache: store}
}

// Rate returns the exchange rate from one currency to another. An identity
// pair is 1.0 with no lookup of any kind.
func (f *RateFetcher) Rate(ctx context.Context, from, to currency.Currency) Rate {
	if from == to {
		return Rate{Value: 1.0, OK: true}
	}
	key := PairKey(from, to)
	if entry, ok := f.cache.Get(key); ok {
		return Rate{Value: entry.Rate, FetchedAt: entry.FetchedAt, OK: true, Cached: true}
	}
	return f.fetch(ctx, from, to, key)
}

// Reload fetches a pair from the network regardless of cache state. Identity
// pairs still short-circuit to 1.0.
func (f *RateFetcher) Reload(ctx context.Context, from, to currency.Currency) Rate {
	if from == to {
		return Rate{Value: 1.0, OK: true}
	}
	return f.fetch(ctx, from, to, PairKey(from, to))
}

func (f *RateFetcher) fetch(ctx context.Context, from, to currency.Currency, key string) Rate {
	v, err, _ := f.group.Do(key, func() (any, error) {
		quote, err := f.quotes.Quote(ctx, market.PairSymbol(from.String(), to.String()))
		if err != nil {
			return RateEntry{}, err
		}
		entry := RateEntry{Rate: quote.Price, FetchedAt: time.Now()}
		f.cache.Set(key, entry)
		return entry, nil
	})
	if err != nil {
		log.Printf("rate fetch failed for %s: %v", key, err)
		return Rate{Value: 0}
	}
	entry := v.(RateEntry)
	return Rate{Value: entry.Rate, FetchedAt: entry.FetchedAt, OK: true}
}
