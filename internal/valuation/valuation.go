// Package valuation computes the display-currency value of held positions
// by fanning out price and rate lookups.
package valuation

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jxdarker/Stocklio/internal/currency"
	"github.com/jxdarker/Stocklio/internal/fetcher"
)

// Kind discriminates position types.
type Kind int

const (
	// Stock positions are valued at shares times the fetched price, in the
	// currency the quote is denominated in.
	Stock Kind = iota
	// Cash positions carry their own amount and currency.
	Cash
)

// Position is one held item.
type Position struct {
	Kind   Kind
	Name   string
	Symbol string  // stock ticker; unused for cash
	Shares float64 // stock share count; unused for cash
	Amount float64 // cash balance; unused for stock
	// Currency denominates the cash amount. Stock value currency comes
	// from the quote.
	Currency currency.Currency
}

// Balance is the valued position. Converted is false when the value is
// expressed in the position's native currency because the rate was
// unavailable; Priced is false when a stock price fetch failed and Value
// carries the zero sentinel.
type Balance struct {
	Position  Position
	Value     float64
	Converted bool
	Priced    bool
}

const defaultConcurrency = 8

// Valuer values positions in a chosen display currency.
type Valuer struct {
	prices    *fetcher.PriceFetcher
	converter *fetcher.Converter
	// Concurrency caps the parallel lookups in TotalBalance. Zero means
	// the default.
	Concurrency int
}

func NewValuer(prices *fetcher.PriceFetcher, converter *fetcher.Converter) *Valuer {
	return &Valuer{prices: prices, converter: converter}
}

// Balance values a single position in the display currency. Failures
// degrade: an unpriced stock values at zero, an unconvertible amount stays
// in its native currency, both flagged on the result.
func (v *Valuer) Balance(ctx context.Context, p Position, display currency.Currency) Balance {
	switch p.Kind {
	case Cash:
		conv := v.converter.Convert(ctx, p.Amount, p.Currency, display)
		return Balance{Position: p, Value: conv.Amount, Converted: conv.Converted, Priced: true}
	default:
		price := v.prices.CurrentPrice(ctx, p.Symbol)
		native := p.Shares * price.Value
		if !price.OK {
			return Balance{Position: p, Value: 0, Converted: false, Priced: false}
		}
		conv := v.converter.Convert(ctx, native, price.Currency, display)
		return Balance{Position: p, Value: conv.Amount, Converted: conv.Converted, Priced: true}
	}
}

// TotalBalance values every position concurrently, joining once all lookups
// complete, and returns the sum alongside the per-position balances in
// input order.
func (v *Valuer) TotalBalance(ctx context.Context, positions []Position, display currency.Currency) (float64, []Balance) {
	balances := make([]Balance, len(positions))

	limit := v.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var total float64
	for i, p := range positions {
		i, p := i, p
		g.Go(func() error {
			b := v.Balance(ctx, p, display)
			balances[i] = b
			mu.Lock()
			total += b.Value
			mu.Unlock()
			return nil
		})
	}
	// Lookups never return errors; Wait only joins the fan-out.
	_ = g.Wait()
	return total, balances
}
