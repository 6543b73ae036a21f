package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/model"
	"github.com/yourorg/backtest-service/internal/service"
	"github.com/yourorg/backtest-service/internal/utils"
)

// BacktestHandler handles backtest HTTP requests
type BacktestHandler struct {
	backtestService *service.BacktestService
	logger          *zap.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(backtestService *service.BacktestService, logger *zap.Logger) *BacktestHandler {
	return &BacktestHandler{
		backtestService: backtestService,
		logger:          logger,
	}
}

// RunBacktest handles running a backtest over stored candles
// POST /api/v1/backtests
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var request model.BacktestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.backtestService.RunBacktest(c.Request.Context(), &request)
	if err != nil {
		h.logger.Error("Backtest failed",
			zap.Error(err),
			zap.String("symbol", request.Symbol),
			zap.String("strategy", request.Strategy))
		utils.SendErrorResponse(c, statusForError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListStrategies handles listing the available strategies
// GET /api/v1/backtests/strategies
func (h *BacktestHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": h.backtestService.Strategies()})
}
