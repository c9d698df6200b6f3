package fetcher

import (
	"context"

	"github.com/jxdarker/Stocklio/internal/currency"
)

// Conversion is the outcome of a currency conversion. Converted reports
// whether a rate was applied: when false the rate was unavailable and
// Amount is the original amount, unconverted.
type Conversion struct {
	Amount    float64 `json:"amount"`
	Converted bool    `json:"converted"`
}

// Converter converts monetary amounts between currencies using fetched
// rates.
type Converter struct {
	rates *RateFetcher
}

func NewConverter(rates *RateFetcher) *Converter {
	return &Converter{rates: rates}
}

// Convert returns amount expressed in the target currency. Identity
// conversions return the amount exactly, with no lookup. When the rate
// cannot be resolved the original amount is returned with Converted=false
// rather than a zero or a silently wrong value.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to currency.Currency) Conversion {
	if from == to {
		return Conversion{Amount: amount, Converted: true}
	}
	rate := c.rates.Rate(ctx, from, to)
	if !rate.OK || rate.Value <= 0 {
		return Conversion{Amount: amount, Converted: false}
	}
	return Conversion{Amount: amount * rate.Value, Converted: true}
}
