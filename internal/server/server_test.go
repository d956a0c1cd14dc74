package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"vol-scanner/internal/config"
	"vol-scanner/internal/provider"
	"vol-scanner/internal/scan"
)

type stubBackend struct {
	scanErr  error
	universe []string
	quote    provider.StockQuote

	lastWindow int
	lastTop    int
}

func (b *stubBackend) ScanUniverse(ctx context.Context, window, top, limit int) (ScanSummary, error) {
	b.lastWindow, b.lastTop = window, top
	if b.scanErr != nil {
		return ScanSummary{}, b.scanErr
	}
	score := 0.4
	return ScanSummary{
		AsOfDate: "2026-08-28",
		Window:   window,
		Top:      top,
		Count:    1,
		Ranked:   []scan.ScoreEntry{{Ticker: "AAPL", Score: &score}},
	}, nil
}

func (b *stubBackend) BackfillRealized(ctx context.Context, limit int) (BackfillSummary, error) {
	return BackfillSummary{AsOfDate: "2026-08-28", Windows: []int{20, 60}, Done: 2, Total: 3,
		Failed: []TickerFailure{{Ticker: "XXXX", Reason: "no_data"}}}, nil
}

func (b *stubBackend) RefreshUniverse(ctx context.Context) (int, error) {
	return len(b.universe), nil
}

func (b *stubBackend) ListUniverse(ctx context.Context, limit int) ([]string, error) {
	return b.universe, nil
}

func (b *stubBackend) StockQuote(ctx context.Context, ticker string) (provider.StockQuote, error) {
	return b.quote, nil
}

func doRequest(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	body := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return rec, body
}

func newTestServer(backend Backend) *Server {
	return New(backend, config.ServerConfig{ListenAddr: ":0"}, zerolog.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&stubBackend{}), http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK || body["s"] != "ok" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
}

func TestScanEndpointPassesParams(t *testing.T) {
	backend := &stubBackend{}
	rec, body := doRequest(t, newTestServer(backend), http.MethodGet, "/api/scan?window=60&top=5")
	if rec.Code != http.StatusOK || body["s"] != "ok" {
		t.Fatalf("scan = %d %v", rec.Code, body)
	}
	if backend.lastWindow != 60 || backend.lastTop != 5 {
		t.Fatalf("params not forwarded: window=%d top=%d", backend.lastWindow, backend.lastTop)
	}
	if body["count"].(float64) != 1 {
		t.Fatalf("count = %v", body["count"])
	}
}

func TestScanEndpointError(t *testing.T) {
	backend := &stubBackend{scanErr: errors.New("universe is empty")}
	rec, body := doRequest(t, newTestServer(backend), http.MethodGet, "/api/scan")
	if rec.Code != http.StatusInternalServerError || body["s"] != "error" {
		t.Fatalf("scan error = %d %v", rec.Code, body)
	}
}

func TestUniverseEndpoints(t *testing.T) {
	backend := &stubBackend{universe: []string{"AAPL", "MSFT"}}
	srv := newTestServer(backend)

	rec, body := doRequest(t, srv, http.MethodGet, "/api/universe")
	if rec.Code != http.StatusOK || body["count"].(float64) != 2 {
		t.Fatalf("universe = %d %v", rec.Code, body)
	}

	rec, body = doRequest(t, srv, http.MethodPost, "/api/universe/refresh")
	if rec.Code != http.StatusOK || body["count"].(float64) != 2 {
		t.Fatalf("refresh = %d %v", rec.Code, body)
	}
}

func TestBackfillEndpoint(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&stubBackend{}), http.MethodPost, "/api/backfill")
	if rec.Code != http.StatusOK || body["s"] != "ok" {
		t.Fatalf("backfill = %d %v", rec.Code, body)
	}
	if body["done"].(float64) != 2 || body["total"].(float64) != 3 {
		t.Fatalf("summary = %v", body)
	}
}

func TestStockPriceRequiresTicker(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&stubBackend{}), http.MethodGet, "/api/stocks/price")
	if rec.Code != http.StatusBadRequest || body["s"] != "error" {
		t.Fatalf("missing ticker = %d %v", rec.Code, body)
	}
}

func TestStockPriceNoFields(t *testing.T) {
	// Quote exists but carries no price fields; the envelope reports it.
	rec, body := doRequest(t, newTestServer(&stubBackend{}), http.MethodGet, "/api/stocks/price?ticker=aapl")
	if rec.Code != http.StatusOK || body["s"] != "error" {
		t.Fatalf("empty quote = %d %v", rec.Code, body)
	}
	if body["msg"] != "no price fields found" {
		t.Fatalf("msg = %v", body["msg"])
	}
}

func TestStockPriceReturnsSpot(t *testing.T) {
	mid := 150.5
	backend := &stubBackend{quote: provider.StockQuote{Mid: &mid}}
	rec, body := doRequest(t, newTestServer(backend), http.MethodGet, "/api/stocks/price?ticker=AAPL")
	if rec.Code != http.StatusOK || body["s"] != "ok" {
		t.Fatalf("price = %d %v", rec.Code, body)
	}
	if body["mid"].(float64) != 150.5 {
		t.Fatalf("mid = %v", body["mid"])
	}
}
