package handler

import (
	"net/http"
	"strconv"
	"strings"

	"foresight/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type predictRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	Timeframe string `json:"timeframe"`
}

// Predict godoc
// @Summary      Generate a price forecast
// @Description  Loads recent history for the asset and runs the heuristic forecaster over it
// @Tags         forecasts
// @Accept       json
// @Produce      json
// @Param        request  body  predictRequest  true  "Symbol and timeframe"
// @Success      200  {object}  domain.ForecastResult
// @Failure      400  {object}  map[string]string
// @Router       /api/predict [post]
func (h *Handler) Predict(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.predict")
	defer span.End()

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	if req.Timeframe == "" {
		req.Timeframe = string(domain.Timeframe1h)
	}
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("timeframe", req.Timeframe),
	)

	if !domain.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}
	if _, err := domain.ParseTimeframe(req.Timeframe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.forecastService.Predict(ctx, symbol, req.Timeframe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPredictions godoc
// @Summary      List stored forecasts for an asset
// @Description  Returns the most recent persisted forecasts, newest first
// @Tags         forecasts
// @Produce      json
// @Param        symbol  path   string  true   "Asset symbol (e.g., BTC, ETH)"
// @Param        limit   query  int     false  "Number of forecasts (default 20, max 100)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/predictions/{symbol} [get]
func (h *Handler) GetPredictions(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-predictions")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if !domain.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	forecasts, err := h.forecastService.Previous(ctx, symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"forecasts": forecasts,
	})
}

// GetHistory godoc
// @Summary      Get price history for an asset
// @Description  Returns the price series used for forecasting, with its source and synthetic flag
// @Tags         forecasts
// @Produce      json
// @Param        symbol     path   string  true   "Asset symbol (e.g., BTC, ETH)"
// @Param        timeframe  query  string  false  "Timeframe (30m, 1h, 4h, 24h)"  default(1h)
// @Success      200  {object}  domain.Series
// @Failure      400  {object}  map[string]string
// @Router       /api/history/{symbol} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if !domain.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	timeframe := c.DefaultQuery("timeframe", string(domain.Timeframe1h))
	if _, err := domain.ParseTimeframe(timeframe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.forecastService.History(ctx, symbol, timeframe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, series)
}

// GetPrice godoc
// @Summary      Get current price for a crypto asset
// @Description  Returns the latest quote with 24h volume and change
// @Tags         prices
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol (e.g., BTC, ETH)"
// @Success      200  {object}  domain.PriceSnapshot
// @Failure      400  {object}  map[string]string
// @Router       /api/prices/{symbol} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if !domain.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	snapshot, err := h.forecastService.Price(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
