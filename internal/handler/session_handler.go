package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
	"github.com/noah-isme/hqhq-web/pkg/response"
)

type sessionService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Restore(ctx context.Context, handle string) *models.SessionStatus
	Logout(ctx context.Context, sessionID string) error
}

// SessionHandler wires the admin login lifecycle.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Login godoc
// @Summary Log in to the review console
// @Description Exchanges the admin password upstream and returns a session handle
// @Tags Admin Session
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// Restore godoc
// @Summary Check a stored session handle
// @Description Re-validates the upstream token; an invalid session is discarded and reported unauthenticated
// @Tags Admin Session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/session [get]
func (h *SessionHandler) Restore(c *gin.Context) {
	handle, _ := middleware.BearerHandle(c)
	status := h.service.Restore(c.Request.Context(), handle)
	response.JSON(c, http.StatusOK, status, middleware.ExtractMeta(c))
}

// Logout godoc
// @Summary Log out of the review console
// @Description Discards the session together with its cached review state
// @Tags Admin Session
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /admin/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Logout(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
