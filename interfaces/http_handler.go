package interfaces

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-shortlist/infrastructure"
	"ai-shortlist/shortlist"
)

// Shortlister is the orchestrator surface the HTTP layer consumes.
type Shortlister interface {
	Run(ctx context.Context, jobID uint) (*shortlist.Result, error)
	Previous(ctx context.Context, jobID uint) (*shortlist.Result, error)
}

// RunPublisher enqueues asynchronous shortlisting runs.
type RunPublisher interface {
	PublishRun(ctx context.Context, req infrastructure.ShortlistRequest) error
}

type HTTPHandler struct {
	shortlister Shortlister
	queue       RunPublisher
	logger      *zap.Logger
}

// NewHTTPHandler registers the shortlisting routes. The Authorization
// token is validated upstream by the identity provider; ownership checks
// stay with the caller.
func NewHTTPHandler(router *gin.Engine, shortlister Shortlister, queue RunPublisher, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HTTPHandler{shortlister: shortlister, queue: queue, logger: logger}

	router.GET("/health", h.Health)
	router.POST("/jobs/:id/shortlist", h.RunShortlisting)
	router.GET("/jobs/:id/shortlist", h.GetShortlistResults)
	router.POST("/jobs/:id/shortlist/async", h.QueueShortlisting)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunShortlisting triggers the full pipeline and returns the ranked
// candidates once every application has been processed.
func (h *HTTPHandler) RunShortlisting(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	result, err := h.shortlister.Run(c.Request.Context(), jobID)
	if err != nil {
		h.renderError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetShortlistResults returns previously computed results without
// re-evaluating anything.
func (h *HTTPHandler) GetShortlistResults(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	result, err := h.shortlister.Previous(c.Request.Context(), jobID)
	if err != nil {
		h.renderError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// QueueShortlisting enqueues a run and returns immediately.
func (h *HTTPHandler) QueueShortlisting(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async runs are not configured"})
		return
	}

	req := infrastructure.ShortlistRequest{JobID: jobID}
	if err := h.queue.PublishRun(c.Request.Context(), req); err != nil {
		h.logger.Error("queueing shortlist run failed", zap.Uint("job_id", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue shortlisting run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "queued"})
}

func (h *HTTPHandler) renderError(c *gin.Context, jobID uint, err error) {
	switch {
	case errors.Is(err, shortlist.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, shortlist.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("shortlisting request failed", zap.Uint("job_id", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func jobIDParam(c *gin.Context) (uint, bool) {
	idStr := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return 0, false
	}
	return uint(id), true
}
