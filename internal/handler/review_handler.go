package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hqhq-web/internal/dto"
	"github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
	"github.com/noah-isme/hqhq-web/pkg/response"
)

type reviewService interface {
	FetchPending(ctx context.Context, sessionID string) ([]models.PendingSubmission, error)
	List(ctx context.Context, sessionID, category string) ([]models.ReviewRow, error)
	ToggleVlog(ctx context.Context, sessionID string, id models.SubmissionID) (*models.VlogToggleResult, error)
	DownloadVlog(ctx context.Context, sessionID string, id models.SubmissionID, playerIndex int) (*models.VlogDownload, error)
	RequestDecision(ctx context.Context, sessionID string, id models.SubmissionID, approved bool) (*models.DecisionIntent, error)
	ConfirmDecision(ctx context.Context, sessionID, reason string) (*models.DecisionResult, error)
	CancelDecision(ctx context.Context, sessionID string) error
}

// ReviewHandler exposes the moderation console.
type ReviewHandler struct {
	service   reviewService
	validator *validator.Validate
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc reviewService, validate *validator.Validate) *ReviewHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewHandler{service: svc, validator: validate}
}

// List godoc
// @Summary List pending submissions
// @Description Returns the held pending list filtered by category; refresh=true reloads it first
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category or All"
// @Param refresh query bool false "Reload from upstream first"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/submissions [get]
func (h *ReviewHandler) List(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		if _, err := h.service.FetchPending(c.Request.Context(), sessionID); err != nil {
			respondError(c, err)
			return
		}
	}
	h.respondRows(c, sessionID, c.DefaultQuery("category", models.CategoryAll))
}

// Refresh godoc
// @Summary Reload pending submissions
// @Description Replaces the pending list with a fresh upstream copy; the old list is kept on failure
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/submissions/refresh [post]
func (h *ReviewHandler) Refresh(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	if _, err := h.service.FetchPending(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	h.respondRows(c, sessionID, models.CategoryAll)
}

func (h *ReviewHandler) respondRows(c *gin.Context, sessionID, category string) {
	rows, err := h.service.List(c.Request.Context(), sessionID, category)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetMeta(c, "category", category)
	middleware.SetMeta(c, "total", len(rows))
	response.JSON(c, http.StatusOK, rows, middleware.ExtractMeta(c))
}

// ToggleVlog godoc
// @Summary Expand or collapse a submission's logs
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/vlog/toggle [post]
func (h *ReviewHandler) ToggleVlog(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.ToggleVlog(c.Request.Context(), sessionID, models.SubmissionID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// DownloadVlog godoc
// @Summary Download one player's log
// @Tags Review
// @Produce plain
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param player path int true "Player index"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/vlog/{player}/download [get]
func (h *ReviewHandler) DownloadVlog(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	player, err := strconv.Atoi(c.Param("player"))
	if err != nil || player < 0 {
		respondError(c, appErrors.Clone(appErrors.ErrValidation, "player must be a non-negative index"))
		return
	}
	file, err := h.service.DownloadVlog(c.Request.Context(), sessionID, models.SubmissionID(c.Param("id")), player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", file.Content)
}

// RequestDecision godoc
// @Summary Open the confirmation step for a decision
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/decision [post]
func (h *ReviewHandler) RequestDecision(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "approved is required"))
		return
	}
	intent, err := h.service.RequestDecision(c.Request.Context(), sessionID, models.SubmissionID(c.Param("id")), *req.Approved)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intent, middleware.ExtractMeta(c))
}

// ConfirmDecision godoc
// @Summary Confirm the open decision
// @Description Sends the pending decision upstream; rejections need a reason
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ConfirmDecisionRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/decision/confirm [post]
func (h *ReviewHandler) ConfirmDecision(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ConfirmDecisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
			return
		}
	}
	res, err := h.service.ConfirmDecision(c.Request.Context(), sessionID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// CancelDecision godoc
// @Summary Close the confirmation step
// @Tags Review
// @Security BearerAuth
// @Success 204
// @Router /admin/decision [delete]
func (h *ReviewHandler) CancelDecision(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		respondError(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.CancelDecision(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
