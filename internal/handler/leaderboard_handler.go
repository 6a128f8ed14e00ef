package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/models"
	"github.com/noah-isme/hqhq-web/internal/service"
	"github.com/noah-isme/hqhq-web/pkg/response"
)

type leaderboardService interface {
	Board(ctx context.Context, filter models.LeaderboardFilter) (*models.LeaderboardPage, bool, error)
	Export(ctx context.Context, filter models.LeaderboardFilter, format string) (*service.ExportFile, error)
	Refresh(ctx context.Context)
}

// LeaderboardHandler serves the public leaderboard.
type LeaderboardHandler struct {
	service leaderboardService
}

// NewLeaderboardHandler creates a new handler.
func NewLeaderboardHandler(svc leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: svc}
}

// Board godoc
// @Summary Filtered leaderboard
// @Description Returns accepted records of one tab filtered by player count, version and moon
// @Tags Leaderboard
// @Produce json
// @Param tab query string false "HQ, SDC or SMHQ"
// @Param players query string false "e.g. 2 Player; 0 Player disables the filter"
// @Param version query string false "e.g. v69; v0 disables the filter"
// @Param moon query string false "Moon name; moon disables the filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Board(c *gin.Context) {
	filter, err := service.ParseLeaderboardFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	page, hit, err := h.service.Board(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetMeta(c, "query", filter.Query().Encode())
	response.JSON(c, http.StatusOK, page, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the filtered leaderboard
// @Tags Leaderboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param tab query string false "HQ, SDC or SMHQ"
// @Param players query string false "Player count filter"
// @Param version query string false "Version filter"
// @Param moon query string false "Moon filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /leaderboard/export [get]
func (h *LeaderboardHandler) Export(c *gin.Context) {
	filter, err := service.ParseLeaderboardFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), filter, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// Refresh godoc
// @Summary Drop the cached leaderboard feed
// @Description Invalidates the cached feed and schedules a background reload when warming is enabled
// @Tags Leaderboard
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /admin/leaderboard/refresh [post]
func (h *LeaderboardHandler) Refresh(c *gin.Context) {
	h.service.Refresh(c.Request.Context())
	response.NoContent(c)
}
