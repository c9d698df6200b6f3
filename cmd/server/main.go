package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jxdarker/Stocklio/internal/cache"
	"github.com/jxdarker/Stocklio/internal/candle"
	"github.com/jxdarker/Stocklio/internal/config"
	"github.com/jxdarker/Stocklio/internal/currency"
	"github.com/jxdarker/Stocklio/internal/fetcher"
	"github.com/jxdarker/Stocklio/internal/market"
	"github.com/jxdarker/Stocklio/internal/refresh"
)

// Narrow views of the fetcher layer so handlers can be exercised with fakes.
type priceService interface {
	CurrentPrice(ctx context.Context, symbol string) fetcher.Price
}
type rateService interface {
	Rate(ctx context.Context, from, to currency.Currency) fetcher.Rate
}
type convertService interface {
	Convert(ctx context.Context, amount float64, from, to currency.Currency) fetcher.Conversion
}
type historyService interface {
	Series(ctx context.Context, symbol, rng, interval string) candle.Series
}

func main() {
	// Config
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
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
	if cfg.Provider.MaxRequestsPerMinute > 0 {
		options = append(options, market.WithRateLimit(cfg.Provider.MaxRequestsPerMinute, cfg.Provider.Burst))
	}
	client := market.NewClient(options...)

	prices := fetcher.NewPriceFetcher(client, cache.New[fetcher.PriceEntry](time.Duration(cfg.Cache.PriceTTLSec)*time.Second))
	rates := fetcher.NewRateFetcher(client, cache.New[fetcher.RateEntry](time.Duration(cfg.Cache.RateTTLSec)*time.Second))
	converter := fetcher.NewConverter(rates)
	history := fetcher.NewHistoryFetcher(client)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Refresh.Cron != "" {
		refresher := refresh.New(ctx, prices, rates, cfg.Refresh.Symbols, cfg.Refresh.Pairs)
		if err := refresher.Register(cfg.Refresh.Cron); err != nil {
			log.Fatalf("refresh: %v", err)
		}
		refresher.Start()
		defer refresher.Stop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/price", func(w http.ResponseWriter, r *http.Request) {
		handleGetPrice(w, r, prices)
	})
	mux.HandleFunc("/api/rate", func(w http.ResponseWriter, r *http.Request) {
		handleGetRate(w, r, rates)
	})
	mux.HandleFunc("/api/convert", func(w http.ResponseWriter, r *http.Request) {
		handleGetConvert(w, r, converter)
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		handleGetHistory(w, r, history)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func handleGetPrice(w http.ResponseWriter, r *http.Request, prices priceService) {
	symbol := r.URL.Query().Get("symbol")
	if strings.TrimSpace(symbol) == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}
	writeJSON(w, prices.CurrentPrice(r.Context(), symbol))
}

func handleGetRate(w http.ResponseWriter, r *http.Request, rates rateService) {
	from, err := currency.Parse(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := currency.Parse(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, rates.Rate(r.Context(), from, to))
}

func handleGetConvert(w http.ResponseWriter, r *http.Request, converter convertService) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		http.Error(w, "invalid amount query param", http.StatusBadRequest)
		return
	}
	from, err := currency.Parse(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := currency.Parse(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, converter.Convert(r.Context(), amount, from, to))
}

type historyResponse struct {
	Symbol  string        `json:"symbol"`
	Candles candle.Series `json:"candles"`
}

func handleGetHistory(w http.ResponseWriter, r *http.Request, history historyService) {
	symbol := r.URL.Query().Get("symbol")
	if strings.TrimSpace(symbol) == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = fetcher.DefaultRange
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = fetcher.DefaultInterval
	}

	series := history.Series(r.Context(), symbol, rng, interval)
	if v := r.URL.Query().Get("bucket_sec"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil || sec < 0 {
			http.Error(w, "invalid bucket_sec query param", http.StatusBadRequest)
			return
		}
		series = candle.Aggregate(series, time.Duration(sec)*time.Second)
	}
	if series == nil {
		series = candle.Series{}
	}
	writeJSON(w, historyResponse{Symbol: market.NormalizeSymbol(symbol), Candles: series})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
