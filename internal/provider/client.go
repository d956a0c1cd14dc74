package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vol-scanner/internal/metrics"
)

const dateLayout = "2006-01-02"

// Options parameterise the market-data client.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
	Retry     RetryPolicy
}

// Client talks to the market-data provider's JSON API: daily candles, stock
// quotes, option chains, and batched option quotes.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	metrics *metrics.Recorder
}

// New constructs a provider client.
func New(opts Options, logger zerolog.Logger, rec *metrics.Recorder) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.marketdata.app/v1"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "provider").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		metrics: rec,
	}
}

// FetchCandles retrieves daily closes for ticker in [from, to]. It returns
// ErrNoData when the provider has no candles or the payload is malformed.
func (c *Client) FetchCandles(ctx context.Context, ticker string, from, to time.Time) (Candles, error) {
	params := url.Values{}
	params.Set("from", from.UTC().Format(dateLayout))
	params.Set("to", to.UTC().Format(dateLayout))

	var res candlesResponse
	endpoint := fmt.Sprintf("%s/stocks/candles/D/%s/", c.baseURL, url.PathEscape(ticker))
	if err := c.getJSON(ctx, "candles", endpoint, params, &res); err != nil {
		return Candles{}, err
	}

	if res.Status != "ok" {
		return Candles{}, ErrNoData
	}
	if len(res.Times) == 0 || len(res.Times) != len(res.Closes) {
		// Mismatched arrays are treated as no data, not a failure.
		c.logger.Warn().Str("ticker", ticker).
			Int("times", len(res.Times)).Int("closes", len(res.Closes)).
			Msg("candle payload arrays mismatched")
		return Candles{}, ErrNoData
	}

	candles := Candles{
		Dates:  make([]time.Time, 0, len(res.Times)),
		Closes: res.Closes,
	}
	for _, t := range res.Times {
		day := time.Unix(t, 0).UTC()
		candles.Dates = append(candles.Dates, time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))
	}
	return candles, nil
}

// FetchStockQuote retrieves the current underlying quote for ticker.
func (c *Client) FetchStockQuote(ctx context.Context, ticker string) (StockQuote, error) {
	var res stockQuoteResponse
	endpoint := fmt.Sprintf("%s/stocks/quotes/%s/", c.baseURL, url.PathEscape(ticker))
	if err := c.getJSON(ctx, "stock_quote", endpoint, nil, &res); err != nil {
		return StockQuote{}, err
	}
	if res.Status != "ok" {
		return StockQuote{}, ErrNoData
	}
	return StockQuote{
		Mid:  firstValue(res.Mid),
		Bid:  firstValue(res.Bid),
		Ask:  firstValue(res.Ask),
		Last: firstValue(res.Last),
	}, nil
}

// Spot derives the spot price for ticker. Nil without error means the
// provider has no usable price.
func (c *Client) Spot(ctx context.Context, ticker string) (*float64, error) {
	quote, err := c.FetchStockQuote(ctx, ticker)
	if err != nil {
		if err == ErrNoData {
			return nil, nil
		}
		return nil, err
	}
	return quote.Spot(), nil
}

// ChainSymbols lists the currently listed option symbols for ticker, empty
// when the provider has no chain.
func (c *Client) ChainSymbols(ctx context.Context, ticker string) ([]string, error) {
	var res chainResponse
	endpoint := fmt.Sprintf("%s/options/chain/%s/", c.baseURL, url.PathEscape(ticker))
	if err := c.getJSON(ctx, "chain", endpoint, nil, &res); err != nil {
		return nil, err
	}
	if res.Status != "ok" {
		return nil, nil
	}

	symbols := make([]string, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		if strings.TrimSpace(s) != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// FetchQuotes retrieves quotes for one chunk of option symbols. It returns
// ErrNoData when the provider has nothing for the chunk.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) (map[string]OptionQuote, error) {
	if len(symbols) == 0 {
		return map[string]OptionQuote{}, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var res quotesResponse
	endpoint := c.baseURL + "/options/quotes/"
	if err := c.getJSON(ctx, "option_quotes", endpoint, params, &res); err != nil {
		return nil, err
	}
	if res.Status != "ok" {
		return nil, ErrNoData
	}

	quotes := make(map[string]OptionQuote, len(res.Quotes))
	for sym, payload := range res.Quotes {
		quotes[sym] = payload.normalize()
	}
	return quotes, nil
}

func (c *Client) getJSON(ctx context.Context, name, endpoint string, params url.Values, out any) error {
	err := c.opts.Retry.Do(ctx, func(ctx context.Context) error {
		return c.doOnce(ctx, endpoint, params, out)
	}, func(attempt int) {
		c.metrics.ProviderRetry(name)
		c.logger.Debug().Str("endpoint", name).Int("attempt", attempt).Msg("retrying provider call")
	})
	if err != nil {
		c.metrics.ProviderRequest(name, "error")
		return err
	}
	c.metrics.ProviderRequest(name, "ok")
	return nil
}

func (c *Client) doOnce(ctx context.Context, endpoint string, params url.Values, out any) error {
	target := endpoint
	if len(params) > 0 {
		target = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// The provider answers cached responses with 203.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNonAuthoritativeInfo {
		return &HTTPError{Status: resp.StatusCode, Body: truncate(strings.TrimSpace(string(payload)), 200)}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
