package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns a Gin engine for the assistant API.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/ingest", h.Ingest)
		apiV1.POST("/chat", h.Chat)
		apiV1.GET("/status", h.Status)
	}

	return r
}
