package market_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jxdarker/Stocklio/internal/market"
)

func quoteBody(t *testing.T, price float64, currency string) io.ReadCloser {
	t.Helper()
	payload := map[string]any{
		"chart": map[string]any{
			"result": []any{
				map[string]any{
					"meta": map[string]any{
						"regularMarketPrice": price,
						"currency":           currency,
					},
				},
			},
		},
	}
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(payload))
	return io.NopCloser(buffer)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "/v8/finance/chart/AAPL", req.URL.Path)
			require.Empty(t, req.URL.RawQuery)
			require.NotEmpty(t, req.Header.Get("User-Agent"))
			return &http.Response{StatusCode: http.StatusOK, Body: quoteBody(t, 187.5, "USD")}, nil
		}).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))

	// Symbols are upper-cased and trimmed before hitting the wire.
	quote, err := client.Quote(context.Background(), "  aapl ")
	require.NoError(t, err)
	require.InEpsilon(t, 187.5, quote.Price, 0.0001)
	require.Equal(t, "USD", quote.Currency)
}

func TestQuote_MissingCurrencyDefaultsToUSD(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	body := `{"chart":{"result":[{"meta":{"regularMarketPrice":42.0}}]}}`
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	quote, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "USD", quote.Currency)
}

func TestQuote_EmptySymbol(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Quote(context.Background(), "   ")
	require.ErrorIs(t, err, market.ErrInvalidRequest)
}

func TestQuote_TransportError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, fmt.Errorf("connection refused")).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, market.ErrNetworkFailure)
}

func TestQuote_Non2xxStatus(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(bytes.NewBufferString("slow down")),
		}, nil).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, market.ErrNetworkFailure)
}

func TestQuote_MalformedJSON(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString("<html>not json</html>")),
		}, nil).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, market.ErrMalformedResponse)
}

func TestQuote_MissingEnvelopeKeys(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"no chart", `{}`},
		{"empty result", `{"chart":{"result":[]}}`},
		{"no meta", `{"chart":{"result":[{}]}}`},
		{"no price", `{"chart":{"result":[{"meta":{"currency":"USD"}}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(&http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(tc.body)),
				}, nil).
				Times(1)

			client := market.NewClient(market.WithHTTPClient(httpClient))
			_, err := client.Quote(context.Background(), "AAPL")
			require.ErrorIs(t, err, market.ErrMalformedResponse)
		})
	}
}

func TestQuote_ChartLevelError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Quote(context.Background(), "NOPE")
	require.ErrorIs(t, err, market.ErrProvider)
}

func TestQuote_ResultLevelError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	body := `{"chart":{"result":[{"meta":{"regularMarketPrice":1.0},"error":{"code":"bad"}}]}}`
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, market.ErrProvider)
}

func TestChart(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	body := `{"chart":{"result":[{
		"meta":{"regularMarketPrice":11.0,"currency":"TWD"},
		"timestamp":[1700000000,1700086400],
		"indicators":{"quote":[{
			"open":[10.0,null],
			"high":[11.0,12.0],
			"low":[9.5,10.5],
			"close":[10.5,11.5],
			"volume":[1000,2000]
		}]}
	}]}}`
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/v8/finance/chart/2330.TW", req.URL.Path)
			require.Equal(t, "1y", req.URL.Query().Get("range"))
			require.Equal(t, "1d", req.URL.Query().Get("interval"))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		}).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	chart, err := client.Chart(context.Background(), "2330.tw", "1y", "1d")
	require.NoError(t, err)
	require.Equal(t, []int64{1700000000, 1700086400}, chart.Timestamps)
	require.Len(t, chart.Open, 2)
	require.NotNil(t, chart.Open[0])
	require.Nil(t, chart.Open[1]) // null slots survive decoding as nil
	require.InEpsilon(t, 10.0, *chart.Open[0], 0.0001)
}

func TestChart_MissingSeries(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	body := `{"chart":{"result":[{"meta":{"regularMarketPrice":1.0}}]}}`
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil).
		Times(1)

	client := market.NewClient(market.WithHTTPClient(httpClient))
	_, err := client.Chart(context.Background(), "AAPL", "1y", "1d")
	require.ErrorIs(t, err, market.ErrMalformedResponse)
}

func TestPairSymbol(t *testing.T) {
	t.Parallel()
	require.Equal(t, "USDTWD=X", market.PairSymbol("USD", "TWD"))
	require.Equal(t, "EURJPY=X", market.PairSymbol("EUR", "JPY"))
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()
	require.Equal(t, "AAPL", market.NormalizeSymbol("  aapl "))
	require.Equal(t, "2330.TW", market.NormalizeSymbol("2330.tw"))
}
