package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/edcraft/mentoring-engine/internal/repositories"
	"github.com/edcraft/mentoring-engine/internal/services"
	"github.com/edcraft/mentoring-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type StateHandler struct {
	BaseHandler
	content   repositories.ContentRepository
	projector *services.StateProjector
}

func NewStateHandler(content repositories.ContentRepository, projector *services.StateProjector, logger utils.Logger) *StateHandler {
	return &StateHandler{
		BaseHandler: NewBaseHandler(logger),
		content:     content,
		projector:   projector,
	}
}

// StudentState returns the flattened student state of a block as JSON.
func (h *StateHandler) StudentState(c *gin.Context) {
	blockID := c.Param("block_id")

	node, err := h.content.Resolve(c.Request.Context(), blockID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "block not found"})
			return
		}
		h.LogError(c, err, "Failed to resolve block", "block_id", blockID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to resolve block"})
		return
	}

	state, err := h.projector.Project(c.Request.Context(), node)
	if err != nil {
		h.LogError(c, err, "Failed to project student state", "block_id", blockID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to project student state"})
		return
	}

	body, err := json.Marshal(state)
	if err != nil {
		h.LogError(c, err, "Failed to encode student state", "block_id", blockID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to encode student state"})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
