package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hqhq-web/internal/models"
	"github.com/noah-isme/hqhq-web/internal/service"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

type fakeLeaderboardSrv struct {
	filter    models.LeaderboardFilter
	format    string
	page      *models.LeaderboardPage
	hit       bool
	err       error
	exportErr error
	refreshed int
}

func (f *fakeLeaderboardSrv) Refresh(context.Context) {
	f.refreshed++
}

func (f *fakeLeaderboardSrv) Board(_ context.Context, filter models.LeaderboardFilter) (*models.LeaderboardPage, bool, error) {
	f.filter = filter
	return f.page, f.hit, f.err
}

func (f *fakeLeaderboardSrv) Export(_ context.Context, filter models.LeaderboardFilter, format string) (*service.ExportFile, error) {
	f.filter = filter
	f.format = format
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &service.ExportFile{Filename: "leaderboard_sdc.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("Rank\n")}, nil
}

func TestLeaderboardHandlerBoard(t *testing.T) {
	srv := &fakeLeaderboardSrv{page: &models.LeaderboardPage{Total: 3}, hit: true}
	handler := NewLeaderboardHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/leaderboard?tab=SDC&players=2+Player&moon=Titan", nil)
	handler.Board(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LeaderboardFilter{Tab: "SDC", Players: "2 Player", Version: "v0", Moon: "Titan"}, srv.filter)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, "moon=Titan&players=2+Player&tab=SDC", env.Meta["query"])
}

func TestLeaderboardHandlerBoardDefaults(t *testing.T) {
	srv := &fakeLeaderboardSrv{page: &models.LeaderboardPage{}}
	handler := NewLeaderboardHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/leaderboard", nil)
	handler.Board(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultLeaderboardFilter(), srv.filter)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["cache_hit"])
}

func TestLeaderboardHandlerRejectsUnknownTab(t *testing.T) {
	handler := NewLeaderboardHandler(&fakeLeaderboardSrv{})

	c, rec := newTestContext(http.MethodGet, "/leaderboard?tab=Speedrun", nil)
	handler.Board(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboardHandlerFeedDown(t *testing.T) {
	handler := NewLeaderboardHandler(&fakeLeaderboardSrv{err: appErrors.ErrUpstreamUnavailable})

	c, rec := newTestContext(http.MethodGet, "/leaderboard", nil)
	handler.Board(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLeaderboardHandlerExport(t *testing.T) {
	srv := &fakeLeaderboardSrv{}
	handler := NewLeaderboardHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/leaderboard/export?tab=SDC", nil)
	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, srv.format)
	assert.Equal(t, "attachment; filename=leaderboard_sdc.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestLeaderboardHandlerRefresh(t *testing.T) {
	srv := &fakeLeaderboardSrv{}
	handler := NewLeaderboardHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/admin/leaderboard/refresh", nil)
	withSession(c, "sid")
	handler.Refresh(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, srv.refreshed)
}

func TestLeaderboardHandlerExportUnknownFormat(t *testing.T) {
	srv := &fakeLeaderboardSrv{exportErr: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	handler := NewLeaderboardHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/leaderboard/export?format=xlsx", nil)
	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "xlsx", srv.format)
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"redis": func(context.Context) error { return nil },
	})

	c, rec := newTestContext(http.MethodGet, "/ready", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	handler = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	c, rec = newTestContext(http.MethodGet, "/ready", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), nil)

	c, rec := newTestContext(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}
