// Package market implements the HTTP client for the chart API serving spot
// quotes, FX-pair quotes and historical candle series.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jxdarker/Stocklio/internal/httpx"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=market_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	// The provider rejects requests without a browser-looking agent.
	defaultUserAgent = "Mozilla/5.0"

	defaultQuoteTimeout = 10 * time.Second
	defaultChartTimeout = 15 * time.Second
)

// Client fetches quotes and chart series from the provider.
type Client struct {
	// baseURL is the scheme and host of the chart API.
	baseURL string
	// httpClient performs the round-trips.
	httpClient HTTPClient
	// header contains headers sent with each request.
	header http.Header
	// quoteTimeout bounds spot and FX quote requests; chartTimeout bounds
	// historical-range requests.
	quoteTimeout time.Duration
	chartTimeout time.Duration
	// limiter optionally gates outbound calls.
	limiter *TokenBucket
}

// Option is a configuration option for the market client.
type Option func(*Client)

// WithBaseURL sets the base URL of the chart API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithHeader adds headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeouts overrides the per-call timeouts. Zero values keep the
// defaults (10s quotes, 15s charts).
func WithTimeouts(quote, chart time.Duration) Option {
	return func(c *Client) {
		if quote > 0 {
			c.quoteTimeout = quote
		}
		if chart > 0 {
			c.chartTimeout = chart
		}
	}
}

// WithRateLimit gates outbound calls to the given requests per minute.
func WithRateLimit(requestsPerMinute, burst int) Option {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = NewTokenBucket(float64(requestsPerMinute)/60.0, burst)
		}
	}
}

// NewClient creates a market client with default transport and timeouts.
func NewClient(options ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		httpClient:   httpx.New(0).HTTP,
		header:       http.Header{},
		quoteTimeout: defaultQuoteTimeout,
		chartTimeout: defaultChartTimeout,
	}
	for _, option := range options {
		option(c)
	}
	if c.header.Get("User-Agent") == "" {
		c.header.Set("User-Agent", defaultUserAgent)
	}
	return c
}

// NormalizeSymbol canonicalizes a ticker for request URLs and cache keys.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// PairSymbol builds the synthetic FX-pair ticker for an exchange rate,
// e.g. PairSymbol("USD", "TWD") == "USDTWD=X".
func PairSymbol(from, to string) string {
	return fmt.Sprintf("%s%s=X", from, to)
}

// Quote fetches the current price for a ticker or FX pair together with the
// currency it is quoted in. The currency string is the provider's code and
// must still be mapped onto the application set by the caller.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	result, err := c.fetch(ctx, symbol, nil, c.quoteTimeout)
	if err != nil {
		return Quote{}, err
	}
	if result.Meta == nil || result.Meta.RegularMarketPrice == nil {
		return Quote{}, fmt.Errorf("%w: missing meta.regularMarketPrice", ErrMalformedResponse)
	}
	code := result.Meta.Currency
	if code == "" {
		code = "USD"
	}
	return Quote{Price: *result.Meta.RegularMarketPrice, Currency: code}, nil
}

// Chart fetches the candle series for a symbol over the given range and
// native interval (e.g. "1y", "1d").
func (c *Client) Chart(ctx context.Context, symbol, rng, interval string) (Chart, error) {
	query := url.Values{}
	query.Set("range", rng)
	query.Set("interval", interval)
	result, err := c.fetch(ctx, symbol, query, c.chartTimeout)
	if err != nil {
		return Chart{}, err
	}
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return Chart{}, fmt.Errorf("%w: missing timestamp or indicators.quote", ErrMalformedResponse)
	}
	quote := result.Indicators.Quote[0]
	return Chart{
		Timestamps: result.Timestamp,
		Open:       quote.Open,
		High:       quote.High,
		Low:        quote.Low,
		Close:      quote.Close,
		Volume:     quote.Volume,
	}, nil
}

// fetch performs one chart-endpoint round-trip and peels the envelope down
// to the first result.
func (c *Client) fetch(ctx context.Context, symbol string, query url.Values, timeout time.Duration) (*chartResult, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(sym))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d for %s", ErrNetworkFailure, res.StatusCode, sym)
	}

	var env chartEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding chart response: %v", ErrMalformedResponse, err)
	}
	if env.Chart == nil {
		return nil, fmt.Errorf("%w: missing chart", ErrMalformedResponse)
	}
	if env.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrProvider, env.Chart.Error.Code, env.Chart.Error.Description)
	}
	if len(env.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart.result", ErrMalformedResponse)
	}
	result := &env.Chart.Result[0]
	if result.failed() {
		return nil, fmt.Errorf("%w: result error for %s", ErrProvider, sym)
	}
	return result, nil
}
