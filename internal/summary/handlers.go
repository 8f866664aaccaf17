package summary

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parley/parley/internal/interview"
)

// Handlers provides HTTP handlers for summary operations
type Handlers struct {
	generator *Generator
	logger    *zap.Logger
}

// NewHandlers creates new summary handlers
func NewHandlers(generator *Generator, logger *zap.Logger) *Handlers {
	return &Handlers{
		generator: generator,
		logger:    logger,
	}
}

// RegisterRoutes registers the summary route under the interviews group
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/interviews/:token/summary", h.GenerateSummary)
}

// GenerateSummary runs the summary pipeline for one interview and returns the
// persisted bundle. Re-posting regenerates and overwrites.
func (h *Handlers) GenerateSummary(c *gin.Context) {
	token := c.Param("token")

	bundle, err := h.generator.Generate(c.Request.Context(), token)
	if err != nil {
		status := interview.StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("summary generation failed", zap.String("token", token), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, bundle)
}
