// Package refresh keeps the price and rate caches warm by reloading tracked
// symbols and currency pairs on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/jxdarker/Stocklio/internal/currency"
	"github.com/jxdarker/Stocklio/internal/fetcher"
)

// Refresher periodically re-fetches tracked symbols and rate pairs,
// bypassing the caches so stale entries are replaced.
type Refresher struct {
	cron    *cron.Cron
	prices  *fetcher.PriceFetcher
	rates   *fetcher.RateFetcher
	symbols []string
	pairs   [][2]currency.Currency
	ctx     context.Context
}

// New creates a Refresher tracking the given symbols and "FROM-TO" pairs.
// Malformed or unsupported pairs are skipped with a warning.
func New(ctx context.Context, prices *fetcher.PriceFetcher, rates *fetcher.RateFetcher, symbols, pairs []string) *Refresher {
	r := &Refresher{
		cron:    cron.New(cron.WithSeconds()),
		prices:  prices,
		rates:   rates,
		symbols: symbols,
		ctx:     ctx,
	}
	for _, p := range pairs {
		from, to, err := parsePair(p)
		if err != nil {
			log.Printf("[WARN] skipping refresh pair %q: %v", p, err)
			continue
		}
		r.pairs = append(r.pairs, [2]currency.Currency{from, to})
	}
	return r
}

// Register schedules the refresh task. Expressions use the six-field
// cron format with seconds, e.g. "0 */15 * * * *".
func (r *Refresher) Register(spec string) error {
	if _, err := r.cron.AddFunc(spec, r.Run); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Run reloads every tracked symbol and pair once.
func (r *Refresher) Run() {
	for _, sym := range r.symbols {
		if p := r.prices.Reload(r.ctx, sym); !p.OK {
			log.Printf("[WARN] refresh: price reload failed for %s", sym)
		}
	}
	for _, pair := range r.pairs {
		if rt := r.rates.Reload(r.ctx, pair[0], pair[1]); !rt.OK {
			log.Printf("[WARN] refresh: rate reload failed for %s-%s", pair[0], pair[1])
		}
	}
	log.Printf("[INFO] refresh: reloaded %d symbols, %d pairs", len(r.symbols), len(r.pairs))
}

// Start starts the cron scheduler.
func (r *Refresher) Start() {
	r.cron.Start()
	log.Println("[INFO] refresher started")
}

// Stop stops the cron scheduler gracefully.
func (r *Refresher) Stop() {
	r.cron.Stop()
	log.Println("[INFO] refresher stopped")
}

func parsePair(s string) (currency.Currency, currency.Currency, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("want FROM-TO")
	}
	from, err := currency.Parse(parts[0])
	if err != nil {
		return "", "", err
	}
	to, err := currency.Parse(parts[1])
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}
