package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikeboe/research-stream/pkg/database"
	"github.com/mikeboe/research-stream/pkg/sse"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.health)
	r.POST("/research", h.research)

	if h.Service.Store == nil {
		return
	}
	api := r.Group("/api")
	{
		api.GET("/runs", h.listRuns)
		api.GET("/runs/:id/events", h.getRunEvents)
		api.GET("/runs/:id/logs", h.getRunLogs)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *Handler) research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seq, err := h.Service.Stream(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrUnknownSource) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	enc := sse.NewEncoder(c.Writer)
	for e := range seq {
		if err := enc.WriteEvent(e); err != nil {
			// Client went away; stopping the range cancels the run.
			return
		}
	}
}

func (h *Handler) listRuns(c *gin.Context) {
	runs, err := h.Service.ListRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Return empty list instead of null
	if runs == nil {
		runs = []database.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) getRunEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	evs, err := h.Service.RunEvents(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if evs == nil {
		evs = []database.StoredEvent{}
	}
	c.JSON(http.StatusOK, evs)
}

func (h *Handler) getRunLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.RunLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []database.LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}
