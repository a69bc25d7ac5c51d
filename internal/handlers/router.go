package handlers

import (
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	exportHandler *ExportHandler
	stateHandler  *StateHandler
}

func NewHandlerManager(exportHandler *ExportHandler, stateHandler *StateHandler) *HandlerManager {
	return &HandlerManager{
		exportHandler: exportHandler,
		stateHandler:  stateHandler,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "mentoring-engine",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		exports := v1.Group("/exports")
		{
			exports.POST("", hm.exportHandler.StartExport)
			exports.GET("/:task_id", hm.exportHandler.GetExportResult)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/:course_id/:filename", hm.exportHandler.DownloadReport)
		}

		blocks := v1.Group("/blocks")
		{
			blocks.GET("/:block_id/student-state", hm.stateHandler.StudentState)
		}
	}
}
