package insights

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parley/parley/internal/interview"
)

// Handlers provides HTTP handlers for cross-interview insights
type Handlers struct {
	service *Service
	logger  *zap.Logger
}

// NewHandlers creates new insights handlers
func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers all insights routes
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	insights := router.Group("/insights")
	{
		insights.GET("", h.GetAggregate)
		insights.GET("/overall", h.GetOverall)
	}
}

// GetAggregate returns the deterministic theme and sentiment aggregate.
func (h *Handlers) GetAggregate(c *gin.Context) {
	aggregate, err := h.service.Aggregate(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, aggregate)
}

// GetOverall runs the on-demand cross-interview synthesis.
func (h *Handlers) GetOverall(c *gin.Context) {
	analysis, err := h.service.Overall(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (h *Handlers) renderError(c *gin.Context, err error) {
	status := interview.StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("insights request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
