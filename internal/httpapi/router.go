// Package httpapi is a thin gin-gonic adapter over the orchestration
// engine. The HTTP surface itself is out of scope for the engine's
// contract; this package exists only so the engine is reachable, the same
// way the teacher treats its own HTTP layer as a thin adapter over
// internal/brain.
package httpapi

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine exposing the chat turn and monitoring
// endpoints.
func NewRouter(h *Handler, metricsHandler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Logger())

	router.POST("/chat", h.Chat)
	router.GET("/health", h.Health)
	router.GET("/metrics", metricsHandler)

	return router
}
