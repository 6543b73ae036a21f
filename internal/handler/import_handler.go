package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/model"
	"github.com/yourorg/backtest-service/internal/service"
	"github.com/yourorg/backtest-service/internal/utils"
)

// ImportHandler handles historical data import HTTP requests
type ImportHandler struct {
	importService *service.ImportService
	logger        *zap.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// StartImport handles initiating a historical data import
// POST /api/v1/imports
func (h *ImportHandler) StartImport(c *gin.Context) {
	var request model.ImportRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.importService.StartImport(c.Request.Context(), &request)
	if err != nil {
		h.logger.Error("Failed to start import",
			zap.Error(err),
			zap.String("symbol", request.Symbol),
			zap.String("source", request.Source),
			zap.String("interval", request.Interval))
		utils.SendErrorResponse(c, statusForError(err), err.Error())
		return
	}

	c.JSON(http.StatusAccepted, task)
}

// GetImportTask handles checking the status of an import task
// GET /api/v1/imports/:id
func (h *ImportHandler) GetImportTask(c *gin.Context) {
	id := c.Param("id")

	task, err := h.importService.GetImportTask(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get import task", zap.Error(err), zap.String("taskID", id))
		utils.SendErrorResponse(c, statusForError(err), "Failed to get import task")
		return
	}
	if task == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Import task not found")
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListImportTasks handles listing import tasks with pagination
// GET /api/v1/imports
func (h *ImportHandler) ListImportTasks(c *gin.Context) {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}
	params := utils.ParsePaginationParams(c, 20, 100)

	tasks, total, err := h.importService.ListImportTasks(
		c.Request.Context(),
		statuses,
		params.Limit,
		utils.CalculateOffset(params.Page, params.Limit),
	)
	if err != nil {
		h.logger.Error("Failed to list import tasks", zap.Error(err))
		utils.SendErrorResponse(c, statusForError(err), "Failed to list import tasks")
		return
	}

	utils.SendPaginatedResponse(c, http.StatusOK, tasks, total, params.Page, params.Limit)
}

// CancelImport handles cancelling a running import task
// DELETE /api/v1/imports/:id
func (h *ImportHandler) CancelImport(c *gin.Context) {
	id := c.Param("id")

	if err := h.importService.CancelImport(c.Request.Context(), id); err != nil {
		h.logger.Warn("Failed to cancel import", zap.Error(err), zap.String("taskID", id))
		utils.SendErrorResponse(c, statusForError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Import cancellation requested",
		"task_id": id,
	})
}
