package refresh

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jxdarker/Stocklio/internal/cache"
	"github.com/jxdarker/Stocklio/internal/fetcher"
	"github.com/jxdarker/Stocklio/internal/market"
)

type fakeQuotes struct {
	quotes map[string]market.Quote
	calls  atomic.Int64
}

func (f *fakeQuotes) Quote(_ context.Context, symbol string) (market.Quote, error) {
	f.calls.Add(1)
	q, ok := f.quotes[symbol]
	if !ok {
		return market.Quote{}, fmt.Errorf("%w: no quote for %s", market.ErrProvider, symbol)
	}
	return q, nil
}

func TestRun_ReloadsSymbolsAndPairs(t *testing.T) {
	fq := &fakeQuotes{quotes: map[string]market.Quote{
		"AAPL":     {Price: 100, Currency: "USD"},
		"USDTWD=X": {Price: 32, Currency: "TWD"},
	}}
	priceStore := cache.New[fetcher.PriceEntry](0)
	rateStore := cache.New[fetcher.RateEntry](0)
	prices := fetcher.NewPriceFetcher(fq, priceStore)
	rates := fetcher.NewRateFetcher(fq, rateStore)

	r := New(context.Background(), prices, rates, []string{"AAPL"}, []string{"USD-TWD", "bogus", "USD-GBP"})
	r.Run()

	if _, ok := priceStore.Get("AAPL"); !ok {
		t.Fatal("AAPL not warmed")
	}
	if _, ok := rateStore.Get("USD-TWD"); !ok {
		t.Fatal("USD-TWD not warmed")
	}
	// The malformed and unsupported pairs were dropped at construction.
	if got := fq.calls.Load(); got != 2 {
		t.Fatalf("network calls = %d, want 2", got)
	}

	// Run bypasses caches: a second pass fetches again.
	r.Run()
	if got := fq.calls.Load(); got != 4 {
		t.Fatalf("network calls = %d, want 4", got)
	}
}

func TestRegister_BadSpec(t *testing.T) {
	r := New(context.Background(), nil, nil, nil, nil)
	if err := r.Register("not a cron spec"); err == nil {
		t.Fatal("want error for malformed cron spec")
	}
	if err := r.Register("0 */15 * * * *"); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}
