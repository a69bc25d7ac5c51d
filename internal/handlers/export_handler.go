package handlers

import (
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/edcraft/mentoring-engine/internal/cache"
	"github.com/edcraft/mentoring-engine/internal/events"
	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/services"
	"github.com/edcraft/mentoring-engine/internal/utils"
	"github.com/edcraft/mentoring-engine/internal/worker"
	"github.com/gin-gonic/gin"
)

// StartExportRequest is the payload enqueuing one answers export.
type StartExportRequest struct {
	CourseID      string   `json:"course_id" validate:"required"`
	SourceBlockID string   `json:"source_block_id" validate:"required"`
	BlockTypes    []string `json:"block_types" validate:"omitempty,dive,block_type"`
	StudentID     string   `json:"student_id"`
	MatchString   string   `json:"match_string"`
	GetRoot       bool     `json:"get_root"`
}

type ExportHandler struct {
	BaseHandler
	publisher events.EventPublisher
	results   cache.CacheService
	exports   services.ExportService
	validator *utils.Validator
}

func NewExportHandler(
	publisher events.EventPublisher,
	results cache.CacheService,
	exports services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *ExportHandler {
	return &ExportHandler{
		BaseHandler: NewBaseHandler(logger),
		publisher:   publisher,
		results:     results,
		exports:     exports,
		validator:   validator,
	}
}

// StartExport enqueues an export task and returns its id for polling.
func (h *ExportHandler) StartExport(c *gin.Context) {
	var req StartExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "validation failed", Details: err.Error()})
		return
	}

	taskID := watermill.NewUUID()
	event := &events.ExportRequestedEvent{
		TaskID:        taskID,
		CourseID:      req.CourseID,
		SourceBlockID: req.SourceBlockID,
		BlockTypes:    req.BlockTypes,
		StudentID:     req.StudentID,
		MatchString:   req.MatchString,
		GetRoot:       req.GetRoot,
	}
	if err := h.publisher.PublishExportRequested(c.Request.Context(), event); err != nil {
		h.LogError(c, err, "Failed to enqueue export", "task_id", taskID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to enqueue export"})
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Message: "export enqueued",
		Data:    gin.H{"task_id": taskID},
	})
}

// GetExportResult returns the structured result of a finished export, or a
// pending marker while the worker is still running it.
func (h *ExportHandler) GetExportResult(c *gin.Context) {
	taskID := c.Param("task_id")

	var result models.ExportResult
	err := h.results.Get(c.Request.Context(), worker.ResultCacheKey(taskID), &result)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			c.JSON(http.StatusAccepted, SuccessResponse{Message: "pending", Data: gin.H{"task_id": taskID}})
			return
		}
		h.LogError(c, err, "Failed to read export result", "task_id", taskID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to read export result"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// DownloadReport streams a stored report as CSV or Excel.
func (h *ExportHandler) DownloadReport(c *gin.Context) {
	courseID := c.Param("course_id")
	filename := c.Param("filename")

	var (
		data        []byte
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err = h.exports.RenderReportCSV(c.Request.Context(), courseID, filename)
		contentType = "text/csv"
	case "xlsx":
		data, err = h.exports.RenderReportExcel(c.Request.Context(), courseID, filename)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "unsupported format"})
		return
	}
	if err != nil {
		if services.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "report not found"})
			return
		}
		h.LogError(c, err, "Failed to render report", "filename", filename)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to render report"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
