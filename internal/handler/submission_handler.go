package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/dto"
	"github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/models"
	"github.com/noah-isme/hqhq-web/internal/service"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
	"github.com/noah-isme/hqhq-web/pkg/logger"
	"github.com/noah-isme/hqhq-web/pkg/response"
)

type submissionService interface {
	Rules() service.SubmissionRules
	Submit(ctx context.Context, draft models.Draft, progress service.ProgressFunc) (*models.SubmissionResult, error)
}

// SubmissionHandler accepts record drafts from the public form.
type SubmissionHandler struct {
	service        submissionService
	options        dto.SubmissionOptions
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc submissionService, defaultVersion string, maxUploadBytes int64, log *zap.Logger) *SubmissionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionHandler{
		service:        svc,
		options:        dto.NewSubmissionOptions(defaultVersion, svc.Rules().RequireVlogs),
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// Options godoc
// @Summary Record form options
// @Description Lists categories, moons and versions selectable on the record form
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/options [get]
func (h *SubmissionHandler) Options(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.options, middleware.ExtractMeta(c))
}

// Submit godoc
// @Summary Submit a record
// @Description Validates the draft, encodes it and forwards it to the record API
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param discord_joined formData string true "yes or no"
// @Param discord_handle formData string true "Discord handle"
// @Param team_members formData string true "JSON array of nicknames"
// @Param category formData string true "high_quota, single_day_clear or single_moon_hq"
// @Param moon formData string false "Moon"
// @Param version formData string true "Game version"
// @Param single_day_earnings formData integer false "Single day earnings"
// @Param quota_achieved formData integer false "Quotas achieved"
// @Param quota_reached formData integer false "Quota reached"
// @Param quota_filled formData integer false "Quota filled"
// @Param video_links formData string false "JSON array of link arrays per active member"
// @Param vlog_files_0 formData file false "Logs of the first active member"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, appErrors.New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "uploaded files are too large"))
			return
		}
		respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	draft, parseErrs := dto.FormFromMultipart(form).ToDraft(form.File)
	if len(parseErrs) > 0 {
		fields := append(parseErrs, service.ValidateDraft(draft, h.service.Rules())...)
		service.SortFieldErrors(fields)
		respondError(c, &service.DraftValidationError{Fields: dedupeFields(fields)})
		return
	}

	log := logger.WithRequest(h.logger, c)
	result, err := h.service.Submit(c.Request.Context(), draft, func(percent int) {
		log.Debug("submission progress", zap.Int("percent", percent))
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, middleware.ExtractMeta(c))
}

// dedupeFields keeps the first error reported for each field.
func dedupeFields(fields []models.FieldError) []models.FieldError {
	seen := make(map[string]struct{}, len(fields))
	out := make([]models.FieldError, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Field]; ok {
			continue
		}
		seen[f.Field] = struct{}{}
		out = append(out, f)
	}
	return out
}
