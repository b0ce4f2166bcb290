package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foxo/internal/assistant"
	"foxo/pkg/logger"
)

// Handler holds the API endpoint handlers.
type Handler struct {
	assistant *assistant.Assistant
	log       *logger.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(a *assistant.Assistant, log *logger.Logger) *Handler {
	return &Handler{assistant: a, log: log}
}

// Ingest triggers a full re-ingestion of the configured data folder. The
// request blocks until the index rebuild finishes.
func (h *Handler) Ingest(c *gin.Context) {
	stats, err := h.assistant.Ingest(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Ingestion failed")
		status := http.StatusInternalServerError
		resp := gin.H{"error": err.Error()}
		if stats != nil {
			resp["stats"] = stats
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ingestion complete", "stats": stats})
}

// ChatRequest is the JSON body of a chat request.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Chat answers a question through the tool-routing agent.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.assistant.Ask(c.Request.Context(), req.Question)
	if err != nil {
		h.log.WithError(err).Error("Chat request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// Status reports whether an index is available and how many chunks it holds.
func (h *Handler) Status(c *gin.Context) {
	status, err := h.assistant.Status(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Status request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}
