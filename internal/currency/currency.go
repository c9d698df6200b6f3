// Package currency defines the closed set of currencies the application
// understands and the mapping from provider currency codes onto it.
package currency

import (
	"fmt"
	"log"
	"strings"
)

// Currency is one of the supported display currencies.
type Currency string

const (
	TWD Currency = "TWD"
	USD Currency = "USD"
	JPY Currency = "JPY"
	EUR Currency = "EUR"
	CNY Currency = "CNY"
)

// Default is returned whenever a currency cannot be determined.
const Default = USD

// All lists every supported currency in display order.
var All = []Currency{TWD, USD, JPY, EUR, CNY}

func (c Currency) String() string { return string(c) }

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	switch c {
	case TWD:
		return "NT$"
	case USD:
		return "$"
	case JPY:
		return "¥"
	case EUR:
		return "€"
	case CNY:
		return "¥"
	}
	return "$"
}

// Parse resolves a user-supplied currency code. Unlike FromProviderCode it
// rejects codes outside the supported set instead of defaulting.
func Parse(code string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case TWD:
		return TWD, nil
	case USD:
		return USD, nil
	case JPY:
		return JPY, nil
	case EUR:
		return EUR, nil
	case CNY:
		return CNY, nil
	}
	return Default, fmt.Errorf("unsupported currency %q", code)
}

// FromProviderCode maps a provider currency string onto the supported set.
// The match is case-insensitive and tolerates the provider's aliases
// (NTD for TWD, RMB for CNY). Unknown codes fall back to USD with a logged
// warning rather than an error.
func FromProviderCode(code string) Currency {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "TWD", "NTD":
		return TWD
	case "USD":
		return USD
	case "JPY":
		return JPY
	case "EUR":
		return EUR
	case "CNY", "RMB":
		return CNY
	}
	log.Printf("[WARN] unknown provider currency %q, defaulting to %s", code, Default)
	return Default
}
