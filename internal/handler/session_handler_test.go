package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withSession(c *gin.Context, sessionID string) {
	c.Set(middleware.ContextSessionKey, &models.SessionClaims{SessionID: sessionID})
}

type fakeSessionSrv struct {
	loginReq  models.LoginRequest
	loginResp *models.LoginResponse
	loginErr  error
	restored  string
	status    *models.SessionStatus
	loggedOut string
	logoutErr error
}

func (f *fakeSessionSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	return f.loginResp, f.loginErr
}

func (f *fakeSessionSrv) Restore(_ context.Context, handle string) *models.SessionStatus {
	f.restored = handle
	return f.status
}

func (f *fakeSessionSrv) Logout(_ context.Context, sessionID string) error {
	f.loggedOut = sessionID
	return f.logoutErr
}

func TestSessionHandlerLogin(t *testing.T) {
	srv := &fakeSessionSrv{loginResp: &models.LoginResponse{SessionToken: "handle", ExpiresAt: time.Now().Add(time.Hour)}}
	handler := NewSessionHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/admin/login", []byte(`{"password":"hunter2"}`))
	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hunter2", srv.loginReq.Password)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"session_token":"handle"`)
}

func TestSessionHandlerLoginRejected(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionSrv{loginErr: appErrors.ErrInvalidCredentials})

	c, rec := newTestContext(http.MethodPost, "/admin/login", []byte(`{"password":"wrong"}`))
	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestSessionHandlerLoginBadJSON(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionSrv{})

	c, rec := newTestContext(http.MethodPost, "/admin/login", []byte(`{`))
	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandlerRestoreWithoutHandle(t *testing.T) {
	srv := &fakeSessionSrv{status: &models.SessionStatus{}}
	handler := NewSessionHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/admin/session", nil)
	handler.Restore(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.restored)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"authenticated":false`)
}

func TestSessionHandlerRestorePassesHandle(t *testing.T) {
	srv := &fakeSessionSrv{status: &models.SessionStatus{Authenticated: true}}
	handler := NewSessionHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/admin/session", nil)
	c.Request.Header.Set("Authorization", "Bearer abc")
	handler.Restore(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", srv.restored)
}

func TestSessionHandlerLogout(t *testing.T) {
	srv := &fakeSessionSrv{}
	handler := NewSessionHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/admin/logout", nil)
	handler.Logout(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/admin/logout", nil)
	withSession(c, "sid-1")
	handler.Logout(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sid-1", srv.loggedOut)
}
