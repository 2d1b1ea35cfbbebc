package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/intraportal/portal-assistant/domain"
)

// maxPromptLen caps a single turn; anything longer is rejected as malformed.
const maxPromptLen = 8000

const profileKey = "profile"

// identity extracts the caller's identity injected by the portal's auth
// gateway and enforces the access policy before any handler runs.
func (h *Handler) identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		profile := domain.UserProfile{
			UserID:      req.Header.Get("X-User-Id"),
			DisplayName: req.Header.Get("X-User-Name"),
			Role:        req.Header.Get("X-User-Role"),
			Department:  req.Header.Get("X-User-Department"),
		}
		if profile.UserID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		allowed, err := h.policyEngine.Allow(req.Context(), map[string]interface{}{
			"user_id":    profile.UserID,
			"role":       profile.Role,
			"department": profile.Department,
		})
		if err != nil {
			log.Printf("ERROR: policy evaluation failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "policy evaluation failed"})
		}
		if !allowed {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "assistant access denied"})
		}

		c.Set(profileKey, profile)
		return next(c)
	}
}

func callerProfile(c echo.Context) domain.UserProfile {
	profile, _ := c.Get(profileKey).(domain.UserProfile)
	return profile
}

// Init ensures a session exists for the caller.
// POST /ai/init
func (h *Handler) Init(c echo.Context) error {
	ctx := c.Request().Context()
	profile := callerProfile(c)

	session, err := h.sessions.GetOrCreate(ctx, profile.UserID)
	if err != nil {
		log.Printf("ERROR: failed to init session for %s: %v", profile.UserID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to initialize session"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"session_id":   session.SessionID,
		"thread_id":    session.ThreadID,
		"assistant_id": session.AssistantID,
	})
}

// Ask sends one conversation turn and returns the assistant's reply.
// POST /ai/ask
func (h *Handler) Ask(c echo.Context) error {
	ctx := c.Request().Context()
	profile := callerProfile(c)

	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" || len(prompt) > maxPromptLen {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing or malformed prompt"})
	}

	response, err := h.orchestrator.Ask(ctx, profile, prompt)
	if err != nil {
		log.Printf("ERROR: ask failed for %s: %v", profile.UserID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": askErrorCode(err)})
	}

	return c.JSON(http.StatusOK, map[string]string{"response": response})
}

// GetHistory returns the caller's transcript.
// GET /ai/history
func (h *Handler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()
	profile := callerProfile(c)

	transcript, err := h.history.Get(ctx, profile)
	if err != nil {
		log.Printf("ERROR: failed to load history for %s: %v", profile.UserID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
	}

	messages := make([]map[string]interface{}, 0, len(transcript.Messages))
	for _, m := range transcript.Messages {
		messages = append(messages, map[string]interface{}{
			"role":       m.Role,
			"created_at": m.CreatedAt,
			"content":    m.Content,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":      transcript.User,
		"thread_id": transcript.ThreadID,
		"messages":  messages,
	})
}

// askErrorCode maps the error taxonomy to the stable codes the UI logs.
// Provider internals are never exposed to the end user.
func askErrorCode(err error) string {
	var (
		provErr  *domain.ProvisioningError
		startErr *domain.RunStartError
		runErr   *domain.RunError
		transErr *domain.TransportError
	)
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrSuperseded):
		return "superseded"
	case errors.As(err, &provErr):
		return "provisioning_failed"
	case errors.As(err, &startErr):
		return "run_start_failed"
	case errors.As(err, &runErr):
		return "run_failed"
	case errors.As(err, &transErr):
		return "inference_unavailable"
	}
	return "internal_error"
}
