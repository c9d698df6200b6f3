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

// PriceEntry is the cached record for one symbol.
type PriceEntry struct {
	Price     float64
	Currency  currency.Currency
	FetchedAt time.Time
}

// Price is the outcome of a price lookup. When OK is false the fetch failed
// and Value holds the zero sentinel with the default currency.
type Price struct {
	Value     float64           `json:"price"`
	Currency  currency.Currency `json:"currency"`
	FetchedAt time.Time         `json:"fetched_at"`
	OK        bool              `json:"ok"`
	Cached    bool              `json:"cached"`
}

// PriceFetcher resolves current prices cache-first, falling back to the
// market client and populating the cache on success. Concurrent misses for
// the same symbol are coalesced into a single network call.
type PriceFetcher struct {
	quotes QuoteService
	cache  *cache.Store[PriceEntry]
	group  singleflight.Group
}

func NewPriceFetcher(quotes QuoteService, store *cache.Store[PriceEntry]) *PriceFetcher {
	return &PriceFetcher{quotes: quotes, cache: store}
}

// CurrentPrice returns the price and currency for a symbol. A cache hit is
// returned immediately without touching the network.
func (f *PriceFetcher) CurrentPrice(ctx context.Context, symbol string) Price {
	sym := market.NormalizeSymbol(symbol)
	if entry, ok := f.cache.Get(sym); ok {
		return Price{Value: entry.Price, Currency: entry.Currency, FetchedAt: entry.FetchedAt, OK: true, Cached: true}
	}
	return f.fetch(ctx, sym)
}

// Reload fetches a symbol from the network regardless of cache state,
// refreshing the cached entry on success.
func (f *PriceFetcher) Reload(ctx context.Context, symbol string) Price {
	return f.fetch(ctx, market.NormalizeSymbol(symbol))
}

func (f *PriceFetcher) fetch(ctx context.Context, sym string) Price {
	v, err, _ := f.group.Do(sym, func() (any, error) {
		quote, err := f.quotes.Quote(ctx, sym)
		if err != nil {
			return PriceEntry{}, err
		}
		entry := PriceEntry{
			Price:     quote.Price,
			Currency:  currency.FromProviderCode(quote.Currency),
			FetchedAt: time.Now(),
		}
		f.cache.Set(sym, entry)
		return entry, nil
	})
	if err != nil {
		log.Printf("price fetch failed for %s: %v", sym, err)
		return Price{Value: 0, Currency: currency.Default}
	}
	entry := v.(PriceEntry)
	return Price{Value: entry.Price, Currency: entry.Currency, FetchedAt: entry.FetchedAt, OK: true}
}
