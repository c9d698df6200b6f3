package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jxdarker/Stocklio/internal/cache"
	"github.com/jxdarker/Stocklio/internal/candle"
	"github.com/jxdarker/Stocklio/internal/config"
	"github.com/jxdarker/Stocklio/internal/currency"
	"github.com/jxdarker/Stocklio/internal/fetcher"
	"github.com/jxdarker/Stocklio/internal/market"
)

// fetch is a one-shot CLI for poking the provider without the server:
// a quote, an FX rate or conversion, or a candle series printed as JSON.
func main() {
	var (
		symbol     string
		history    bool
		fromCode   string
		toCode     string
		amount     float64
		rng        string
		interval   string
		bucketSec  int64
		configPath string
	)

	flag.StringVar(&symbol, "symbol", "", "ticker to quote, or to chart with -history")
	flag.BoolVar(&history, "history", false, "fetch the candle series for -symbol instead of a quote")
	flag.StringVar(&fromCode, "from", "", "source currency")
	flag.StringVar(&toCode, "to", "", "target currency")
	flag.Float64Var(&amount, "amount", 0, "amount to convert (with -from and -to)")
	flag.StringVar(&rng, "range", fetcher.DefaultRange, "history range (e.g. 1mo, 1y)")
	flag.StringVar(&interval, "interval", fetcher.DefaultInterval, "history native interval")
	flag.Int64Var(&bucketSec, "bucket-sec", 0, "re-bucket history into this interval in seconds (0 = native)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	options := []market.Option{
		market.WithBaseURL(cfg.Provider.BaseURL),
		market.WithTimeouts(
			time.Duration(cfg.Provider.QuoteTimeoutSec)*time.Second,
			time.Duration(cfg.Provider.ChartTimeoutSec)*time.Second,
		),
	}
	if cfg.Provider.UserAgent != "" {
		options = append(options, market.WithHeader(http.Header{"User-Agent": []string{cfg.Provider.UserAgent}}))
	}
	client := market.NewClient(options...)
	ctx := context.Background()

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	out.SetEscapeHTML(false)

	switch {
	case history && symbol != "":
		charts := fetcher.NewHistoryFetcher(client)
		series := charts.Series(ctx, symbol, rng, interval)
		if bucketSec > 0 {
			series = candle.Aggregate(series, time.Duration(bucketSec)*time.Second)
		}
		if series == nil {
			series = candle.Series{}
		}
		_ = out.Encode(map[string]any{"symbol": market.NormalizeSymbol(symbol), "candles": series})

	case fromCode != "" && toCode != "":
		from, err := currency.Parse(fromCode)
		if err != nil {
			log.Fatalf("from: %v", err)
		}
		to, err := currency.Parse(toCode)
		if err != nil {
			log.Fatalf("to: %v", err)
		}
		rates := fetcher.NewRateFetcher(client, cache.New[fetcher.RateEntry](0))
		if amount != 0 {
			_ = out.Encode(fetcher.NewConverter(rates).Convert(ctx, amount, from, to))
			return
		}
		_ = out.Encode(rates.Rate(ctx, from, to))

	case symbol != "":
		prices := fetcher.NewPriceFetcher(client, cache.New[fetcher.PriceEntry](0))
		_ = out.Encode(prices.CurrentPrice(ctx, symbol))

	default:
		fmt.Fprintln(os.Stderr, "usage: fetch -symbol AAPL | fetch -symbol AAPL -history [-bucket-sec 604800] | fetch -from USD -to TWD [-amount 100]")
		os.Exit(2)
	}
}
