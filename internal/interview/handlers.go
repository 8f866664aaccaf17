package interview

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parley/parley/internal/language"
)

// Handlers provides HTTP handlers for interview operations
type Handlers struct {
	manager Manager
	logger  *zap.Logger
}

// NewHandlers creates new interview handlers
func NewHandlers(manager Manager, logger *zap.Logger) *Handlers {
	return &Handlers{
		manager: manager,
		logger:  logger,
	}
}

// RegisterRoutes registers all interview-related routes
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	interviews := router.Group("/interviews")
	{
		interviews.POST("", h.CreateInterview)
		interviews.GET("", h.ListInterviews)
		interviews.GET("/:token", h.GetInterview)
		interviews.GET("/:token/turns", h.GetTranscript)
		interviews.POST("/:token/turns", h.SubmitTurn)
		interviews.POST("/:token/complete", h.CompleteInterview)
	}
}

// CreateInterview starts a new interview and returns its shareable token
// along with the fixed opening message the client renders first.
func (h *Handlers) CreateInterview(c *gin.Context) {
	iv, err := h.manager.CreateInterview(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":           iv.Token,
		"status":          iv.Status,
		"started_at":      iv.StartedAt,
		"opening_message": language.OpeningMessage,
	})
}

// ListInterviews returns interviews filtered by status. Only
// status=completed is supported.
func (h *Handlers) ListInterviews(c *gin.Context) {
	status := c.Query("status")
	if status != string(StatusCompleted) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status=completed is required"})
		return
	}

	interviews, err := h.manager.ListCompleted(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"interviews": interviews,
		"total":      len(interviews),
	})
}

func (h *Handlers) GetInterview(c *gin.Context) {
	token := c.Param("token")

	iv, err := h.manager.GetByToken(c.Request.Context(), token)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, iv)
}

func (h *Handlers) GetTranscript(c *gin.Context) {
	token := c.Param("token")

	turns, err := h.manager.Transcript(c.Request.Context(), token)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"turns": turns,
		"total": len(turns),
	})
}

// SubmitTurn accepts one user turn and streams the assistant reply back as
// plain text chunks. Errors raised before the first chunk are reported as
// JSON; once streaming has started the connection is simply closed and the
// client retries from the persisted transcript.
func (h *Handlers) SubmitTurn(c *gin.Context) {
	token := c.Param("token")

	var req SubmitTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	streamed := false
	onChunk := func(chunk string) error {
		if !streamed {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			streamed = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	result, err := h.manager.SubmitTurn(c.Request.Context(), token, req.Content, onChunk)
	if err != nil {
		if streamed {
			h.logger.Error("turn failed mid-stream", zap.String("token", token), zap.Error(err))
			return
		}
		h.renderError(c, err)
		return
	}

	// Completion is not signaled in-band; clients observe it by re-fetching
	// the interview, whose status flips to completed.
	if !streamed {
		// Model produced no chunks; still deliver the full reply.
		c.String(http.StatusOK, result.Reply)
	}
}

func (h *Handlers) CompleteInterview(c *gin.Context) {
	token := c.Param("token")

	if err := h.manager.Complete(c.Request.Context(), token); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interview completed"})
}

func (h *Handlers) renderError(c *gin.Context, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("interview request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusForError maps domain error kinds to HTTP status codes. Unrecognized
// errors map to 500.
func StatusForError(err error) int {
	switch {
	case IsKind(err, ErrorTypeNotFound):
		return http.StatusNotFound
	case IsKind(err, ErrorTypeInvalidInput):
		return http.StatusBadRequest
	case IsKind(err, ErrorTypeCompleted):
		return http.StatusConflict
	case IsKind(err, ErrorTypeInsufficientData):
		return http.StatusUnprocessableEntity
	case IsKind(err, ErrorTypeUpstreamUnavailable),
		IsKind(err, ErrorTypeMalformedResult),
		IsKind(err, ErrorTypeSummaryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
