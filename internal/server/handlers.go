package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// The provider's own payloads discriminate on a short "s" status field; the
// API keeps the same envelope so existing consumers of the original backend
// keep working.

func okEnvelope(fields map[string]any) map[string]any {
	out := map[string]any{"s": "ok"}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func errEnvelope(msg string) map[string]any {
	return map[string]any{"s": "error", "msg": msg}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, okEnvelope(nil))
}

func (s *Server) handleScan(c echo.Context) error {
	window := intQuery(c, "window", 0)
	top := intQuery(c, "top", 0)
	limit := intQuery(c, "limit", 0)

	summary, err := s.backend.ScanUniverse(c.Request().Context(), window, top, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("scan request failed")
		return c.JSON(http.StatusInternalServerError, errEnvelope(err.Error()))
	}
	return c.JSON(http.StatusOK, okEnvelope(map[string]any{
		"asof_date": summary.AsOfDate,
		"window":    summary.Window,
		"top":       summary.Top,
		"count":     summary.Count,
		"ranked":    summary.Ranked,
	}))
}

func (s *Server) handleUniverse(c echo.Context) error {
	limit := intQuery(c, "limit", 0)
	tickers, err := s.backend.ListUniverse(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("universe request failed")
		return c.JSON(http.StatusInternalServerError, errEnvelope(err.Error()))
	}
	return c.JSON(http.StatusOK, okEnvelope(map[string]any{
		"tickers": tickers,
		"count":   len(tickers),
	}))
}

func (s *Server) handleUniverseRefresh(c echo.Context) error {
	count, err := s.backend.RefreshUniverse(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("universe refresh failed")
		return c.JSON(http.StatusInternalServerError, errEnvelope(err.Error()))
	}
	return c.JSON(http.StatusOK, okEnvelope(map[string]any{"count": count}))
}

func (s *Server) handleBackfill(c echo.Context) error {
	limit := intQuery(c, "limit", 0)
	summary, err := s.backend.BackfillRealized(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("backfill request failed")
		return c.JSON(http.StatusInternalServerError, errEnvelope(err.Error()))
	}
	return c.JSON(http.StatusOK, okEnvelope(map[string]any{
		"asof_date": summary.AsOfDate,
		"windows":   summary.Windows,
		"done":      summary.Done,
		"total":     summary.Total,
		"failed":    summary.Failed,
	}))
}

func (s *Server) handleStockPrice(c echo.Context) error {
	ticker := strings.ToUpper(strings.TrimSpace(c.QueryParam("ticker")))
	if ticker == "" {
		return c.JSON(http.StatusBadRequest, errEnvelope("ticker is required"))
	}

	quote, err := s.backend.StockQuote(c.Request().Context(), ticker)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("stock price request failed")
		return c.JSON(http.StatusInternalServerError, errEnvelope(err.Error()))
	}

	spot := quote.Spot()
	if spot == nil {
		return c.JSON(http.StatusOK, errEnvelope("no price fields found"))
	}
	return c.JSON(http.StatusOK, okEnvelope(map[string]any{
		"ticker": ticker,
		"mid":    spot,
		"bid":    quote.Bid,
		"ask":    quote.Ask,
		"last":   quote.Last,
	}))
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
