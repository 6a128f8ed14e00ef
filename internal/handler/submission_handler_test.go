package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hqhq-web/internal/models"
	"github.com/noah-isme/hqhq-web/internal/service"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

type fakeSubmissionSrv struct {
	rules  service.SubmissionRules
	draft  models.Draft
	called bool
	result *models.SubmissionResult
	err    error
}

func (f *fakeSubmissionSrv) Rules() service.SubmissionRules { return f.rules }

func (f *fakeSubmissionSrv) Submit(_ context.Context, draft models.Draft, progress service.ProgressFunc) (*models.SubmissionResult, error) {
	f.called = true
	f.draft = draft
	if progress != nil {
		progress(service.ProgressStarted)
	}
	return f.result, f.err
}

func multipartContext(t *testing.T, values map[string]string, files map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("log line"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	c, rec := newTestContext(http.MethodPost, "/submissions", nil)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", body)
	c.Request.Header.Set("Content-Type", w.FormDataContentType())
	return c, rec
}

func validFormValues() map[string]string {
	return map[string]string{
		"discord_joined": "yes",
		"discord_handle": "crew#1",
		"team_members":   `["A","","",""]`,
		"category":       "high_quota",
		"version":        "v73",
		"quota_achieved": "20",
		"quota_reached":  "12000",
		"quota_filled":   "11500",
		"video_links":    `[["https://youtu.be/x"]]`,
	}
}

func TestSubmissionHandlerOptions(t *testing.T) {
	handler := NewSubmissionHandler(&fakeSubmissionSrv{rules: service.SubmissionRules{RequireVlogs: true}}, "v73", 0, nil)

	c, rec := newTestContext(http.MethodGet, "/submissions/options", nil)
	handler.Options(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := string(decodeEnvelope(t, rec).Data)
	assert.Contains(t, data, `"default_version":"v73"`)
	assert.Contains(t, data, `"require_vlogs":true`)
}

func TestSubmissionHandlerSubmitSuccess(t *testing.T) {
	srv := &fakeSubmissionSrv{result: &models.SubmissionResult{Success: true, SubmissionID: "42"}}
	handler := NewSubmissionHandler(srv, "v73", 1<<20, nil)

	c, rec := multipartContext(t, validFormValues(), map[string]string{"vlog_files_0": "a.log"})
	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, srv.called)
	assert.Equal(t, models.CategoryHighQuota, srv.draft.Category)
	require.Len(t, srv.draft.VlogFiles, 1)
	assert.Equal(t, "a.log", srv.draft.VlogFiles[0][0].Filename)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"submission_id":"42"`)
}

func TestSubmissionHandlerReportsParseErrorsInFormOrder(t *testing.T) {
	srv := &fakeSubmissionSrv{}
	handler := NewSubmissionHandler(srv, "v73", 1<<20, nil)

	values := validFormValues()
	delete(values, "discord_joined")
	values["quota_achieved"] = "twelve"
	c, rec := multipartContext(t, values, nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, srv.called)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Equal(t, "discordJoined", env.Meta["focus"])

	fields, ok := env.Meta["fields"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 2)
	second := fields[1].(map[string]interface{})
	assert.Equal(t, "quotaAchieved", second["field"])
	assert.Equal(t, "must be a whole number", second["message"])
}

func TestSubmissionHandlerMapsServiceValidation(t *testing.T) {
	srv := &fakeSubmissionSrv{err: &service.DraftValidationError{Fields: []models.FieldError{{Field: "moon", Message: "select a moon"}}}}
	handler := NewSubmissionHandler(srv, "v73", 1<<20, nil)

	c, rec := multipartContext(t, validFormValues(), nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "moon", decodeEnvelope(t, rec).Meta["focus"])
}

func TestSubmissionHandlerUpstreamFailure(t *testing.T) {
	srv := &fakeSubmissionSrv{err: appErrors.ErrUpstreamUnavailable}
	handler := NewSubmissionHandler(srv, "v73", 1<<20, nil)

	c, rec := multipartContext(t, validFormValues(), nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSubmissionHandlerRejectsOversizedUpload(t *testing.T) {
	srv := &fakeSubmissionSrv{}
	handler := NewSubmissionHandler(srv, "v73", 256, nil)

	values := validFormValues()
	values["discord_handle"] = strings.Repeat("x", 1024)
	c, rec := multipartContext(t, values, nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, srv.called)
}
