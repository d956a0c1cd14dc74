package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(baseURL string) *Client {
	return New(Options{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Retry:   RetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond},
	}, zerolog.Nop(), nil)
}

func TestFetchCandlesNormalizesDates(t *testing.T) {
	// 2024-06-20T13:30:00Z and the next day, both mid-session timestamps.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		fmt.Fprint(w, `{"s":"ok","t":[1718890200,1718976600],"c":[101.5,102.25]}`)
	}))
	defer srv.Close()

	candles, err := newTestClient(srv.URL).FetchCandles(context.Background(), "AAPL",
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(candles.Closes) != 2 || candles.Closes[1] != 102.25 {
		t.Fatalf("closes = %v", candles.Closes)
	}
	want := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	if !candles.Dates[0].Equal(want) {
		t.Fatalf("date = %v, want %v", candles.Dates[0], want)
	}
}

func TestFetchCandlesNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchCandles(context.Background(), "XXXX", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchCandlesMismatchedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"ok","t":[1718890200],"c":[101.5,102.25]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchCandles(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("mismatched arrays should read as no data, got %v", err)
	}
}

func TestCachedResponseAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		fmt.Fprint(w, `{"s":"ok","mid":[150.5],"bid":[150.0],"ask":[151.0],"last":[150.4]}`)
	}))
	defer srv.Close()

	quote, err := newTestClient(srv.URL).FetchStockQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("203 must count as success: %v", err)
	}
	if quote.Mid == nil || *quote.Mid != 150.5 {
		t.Fatalf("mid = %v", quote.Mid)
	}
}

func TestStockQuoteUnwrapsNullFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"ok","mid":[null],"bid":[150.0],"ask":[151.0],"last":[null]}`)
	}))
	defer srv.Close()

	quote, err := newTestClient(srv.URL).FetchStockQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if quote.Mid != nil || quote.Last != nil {
		t.Fatalf("null fields must unwrap to nil: %+v", quote)
	}

	spot := quote.Spot()
	if spot == nil || *spot != 150.5 {
		t.Fatalf("spot should fall back to bid/ask midpoint, got %v", spot)
	}
}

func TestSpotNoDataIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer srv.Close()

	spot, err := newTestClient(srv.URL).Spot(context.Background(), "XXXX")
	if err != nil {
		t.Fatalf("no data must not be an error: %v", err)
	}
	if spot != nil {
		t.Fatalf("spot = %v, want nil", *spot)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"s":"ok","optionSymbol":["AAPL240621C150"]}`)
	}))
	defer srv.Close()

	symbols, err := newTestClient(srv.URL).ChainSymbols(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("expected recovery after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("made %d calls, want 3", calls.Load())
	}
	if len(symbols) != 1 || symbols[0] != "AAPL240621C150" {
		t.Fatalf("symbols = %v", symbols)
	}
}

func TestFetchQuotesNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"ok","quotes":{
			"AAPL240621C150":{"iv":[0.29],"delta":[0.51],"bid":[3.1],"ask":[3.3]},
			"AAPL240621C160":{"iv":[null],"delta":[0.22]}
		}}`)
	}))
	defer srv.Close()

	quotes, err := newTestClient(srv.URL).FetchQuotes(context.Background(), []string{"AAPL240621C150", "AAPL240621C160"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	atm := quotes["AAPL240621C150"]
	if atm.IV == nil || *atm.IV != 0.29 || atm.Delta == nil || *atm.Delta != 0.51 {
		t.Fatalf("quote not unwrapped: %+v", atm)
	}
	far := quotes["AAPL240621C160"]
	if far.IV != nil {
		t.Fatalf("null iv must stay nil, got %v", *far.IV)
	}
}

func TestFetchQuotesEmptyChunk(t *testing.T) {
	quotes, err := newTestClient("http://unused.invalid").FetchQuotes(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty chunk should not hit the network: %v", err)
	}
	if len(quotes) != 0 {
		t.Fatalf("quotes = %v", quotes)
	}
}
