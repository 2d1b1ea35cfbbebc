// Package api provides HTTP handlers for the assistant service.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intraportal/portal-assistant/assistant"
	"github.com/intraportal/portal-assistant/policy"
)

// Handler handles HTTP requests.
type Handler struct {
	orchestrator *assistant.Orchestrator
	sessions     *assistant.SessionManager
	history      *assistant.History
	policyEngine *policy.Engine
}

// NewHandler creates a new handler.
func NewHandler(orchestrator *assistant.Orchestrator, sessions *assistant.SessionManager, history *assistant.History, policyEngine *policy.Engine) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		sessions:     sessions,
		history:      history,
		policyEngine: policyEngine,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	ai := e.Group("/ai", h.identity)
	ai.POST("/init", h.Init)
	ai.POST("/ask", h.Ask)
	ai.GET("/history", h.GetHistory)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
