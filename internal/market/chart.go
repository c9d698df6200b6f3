package market

import (
	"encoding/json"
	"errors"
)

// Failure taxonomy for provider calls. Callers match with errors.Is; every
// error returned by Client wraps exactly one of these.
var (
	// ErrInvalidRequest marks a request that never made it onto the wire
	// (empty symbol, unbuildable URL).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNetworkFailure covers timeouts, connection errors and non-2xx
	// statuses.
	ErrNetworkFailure = errors.New("network failure")
	// ErrMalformedResponse covers undecodable JSON and missing required
	// fields.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrProvider marks a well-formed response that explicitly carries an
	// error object.
	ErrProvider = errors.New("provider error")
)

// Quote is a current market price and the currency it is denominated in.
type Quote struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Chart holds the parallel arrays of one historical chart response. Array
// slots are nil where the provider reported no value (holidays, halts).
type Chart struct {
	Timestamps []int64
	Open       []*float64
	High       []*float64
	Low        []*float64
	Close      []*float64
	Volume     []*float64
}

// chartEnvelope mirrors the provider's response document. Pointer fields let
// decode distinguish an absent key from a zero value.
type chartEnvelope struct {
	Chart *struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta *struct {
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		Currency           string   `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
	// Any error object on the result means the whole response failed.
	Error json.RawMessage `json:"error"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (r *chartResult) failed() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}
