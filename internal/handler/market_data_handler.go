package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/adapter"
	"github.com/yourorg/backtest-service/internal/model"
	"github.com/yourorg/backtest-service/internal/service"
	"github.com/yourorg/backtest-service/internal/utils"
)

// MarketDataHandler serves stored candles and live adapter lookups
type MarketDataHandler struct {
	candles  service.CandleStore
	adapters *adapter.Registry
	logger   *zap.Logger
}

// NewMarketDataHandler creates a new market data handler
func NewMarketDataHandler(candles service.CandleStore, adapters *adapter.Registry, logger *zap.Logger) *MarketDataHandler {
	return &MarketDataHandler{
		candles:  candles,
		adapters: adapters,
		logger:   logger,
	}
}

// GetCandles handles retrieving stored candles for a series
// GET /api/v1/market-data/candles
func (h *MarketDataHandler) GetCandles(c *gin.Context) {
	symbol := c.Query("symbol")
	source := c.Query("source")
	if symbol == "" || source == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "symbol and source are required")
		return
	}
	interval := model.NormalizeInterval(c.DefaultQuery("interval", "1d"))

	var start, end *time.Time
	if raw := c.Query("start_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "start_time must be RFC3339")
			return
		}
		start = &t
	}
	if raw := c.Query("end_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "end_time must be RFC3339")
			return
		}
		end = &t
	}

	params := utils.ParsePaginationParams(c, 500, 5000)
	limit := params.Limit

	candles, err := h.candles.GetCandles(c.Request.Context(), symbol, source, interval, start, end, &limit)
	if err != nil {
		h.logger.Error("Failed to get candles",
			zap.Error(err),
			zap.String("symbol", symbol),
			zap.String("source", source))
		utils.SendErrorResponse(c, statusForError(err), "Failed to get candles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  candles,
		"count": len(candles),
	})
}

// GetProducts handles listing tradable products from a data source
// GET /api/v1/market-data/sources/:assetType/:source/products
func (h *MarketDataHandler) GetProducts(c *gin.Context) {
	src, err := h.adapters.Resolve(c.Param("assetType"), c.Param("source"))
	if err != nil {
		utils.SendErrorResponse(c, statusForError(err), err.Error())
		return
	}

	products, err := src.GetProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get products",
			zap.Error(err),
			zap.String("source", src.Name()))
		utils.SendErrorResponse(c, statusForError(err), "Failed to get products from source")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// GetTicker handles fetching the current ticker for a symbol
// GET /api/v1/market-data/sources/:assetType/:source/ticker/:symbol
func (h *MarketDataHandler) GetTicker(c *gin.Context) {
	src, err := h.adapters.Resolve(c.Param("assetType"), c.Param("source"))
	if err != nil {
		utils.SendErrorResponse(c, statusForError(err), err.Error())
		return
	}

	ticker, err := src.GetTicker(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.logger.Error("Failed to get ticker",
			zap.Error(err),
			zap.String("source", src.Name()),
			zap.String("symbol", c.Param("symbol")))
		utils.SendErrorResponse(c, statusForError(err), "Failed to get ticker from source")
		return
	}

	c.JSON(http.StatusOK, ticker)
}

// CheckConnection handles probing a data source
// GET /api/v1/market-data/sources/:assetType/:source/status
func (h *MarketDataHandler) CheckConnection(c *gin.Context) {
	src, err := h.adapters.Resolve(c.Param("assetType"), c.Param("source"))
	if err != nil {
		utils.SendErrorResponse(c, statusForError(err), err.Error())
		return
	}

	if err := src.CheckConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"source":    src.Name(),
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":    src.Name(),
		"connected": true,
	})
}
