package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	"github.com/noah-isme/hqhq-web/internal/repository"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

type mockAdminAPI struct {
	mu sync.Mutex

	token    string
	loginErr error

	pending    []models.PendingSubmission
	pendingErr error

	vlogs     map[models.SubmissionID]*models.VlogContent
	vlogErr   error
	vlogCalls int

	decisions   []models.DecisionRequest
	decisionErr error
}

func (m *mockAdminAPI) Login(ctx context.Context, password string) (string, error) {
	if m.loginErr != nil {
		return "", m.loginErr
	}
	return m.token, nil
}

func (m *mockAdminAPI) PendingSubmissions(ctx context.Context, token string) ([]models.PendingSubmission, error) {
	if m.pendingErr != nil {
		return nil, m.pendingErr
	}
	return append([]models.PendingSubmission(nil), m.pending...), nil
}

func (m *mockAdminAPI) VlogContent(ctx context.Context, token string, id models.SubmissionID) (*models.VlogContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vlogCalls++
	if m.vlogErr != nil {
		return nil, m.vlogErr
	}
	return m.vlogs[id], nil
}

func (m *mockAdminAPI) ApproveSubmission(ctx context.Context, token string, decision models.DecisionRequest) (*models.DecisionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decision)
	if m.decisionErr != nil {
		return nil, m.decisionErr
	}
	return &models.DecisionResult{SubmissionID: decision.SubmissionID, Approved: decision.Approved, Success: true}, nil
}

func newTestSessionService(api AdminAPI) (*SessionService, *repository.MemorySessionRepository) {
	repo := repository.NewMemorySessionRepository(time.Hour)
	svc := NewSessionService(repo, api, NewPasswordSealer("seal"), validator.New(), nil, zap.NewNop(), SessionConfig{
		Secret: "secret",
		TTL:    time.Hour,
		Issuer: "hqhq-web",
	})
	return svc, repo
}

func loginSession(t *testing.T, svc *SessionService) string {
	t.Helper()
	res, err := svc.Login(context.Background(), models.LoginRequest{Password: "hunter2"})
	require.NoError(t, err)
	claims, err := svc.ValidateHandle(res.SessionToken)
	require.NoError(t, err)
	return claims.SessionID
}

func TestSessionServiceLoginStoresSealedPassword(t *testing.T) {
	svc, repo := newTestSessionService(&mockAdminAPI{token: "upstream-token"})

	res, err := svc.Login(context.Background(), models.LoginRequest{Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionToken)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateHandle(res.SessionToken)
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "upstream-token", stored.Token)
	assert.NotContains(t, string(stored.SealedPassword), "hunter2")

	password, err := svc.Password(stored)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)
}

func TestSessionServiceLoginSeedsPending(t *testing.T) {
	api := &mockAdminAPI{token: "upstream-token", pending: samplePending()}
	svc, repo := newTestSessionService(api)

	stored, err := repo.Get(context.Background(), loginSession(t, svc))
	require.NoError(t, err)
	assert.Len(t, stored.Pending, 3)

	api.pendingErr = appErrors.Clone(appErrors.ErrUpstreamUnavailable, "down")
	stored, err = repo.Get(context.Background(), loginSession(t, svc))
	require.NoError(t, err)
	assert.NotNil(t, stored.Pending)
	assert.Empty(t, stored.Pending)
}

func TestSessionServiceLoginFailure(t *testing.T) {
	svc, _ := newTestSessionService(&mockAdminAPI{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "wrong password")})

	_, err := svc.Login(context.Background(), models.LoginRequest{Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "wrong password", appErrors.FromError(err).Message)

	_, err = svc.Login(context.Background(), models.LoginRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSessionServiceRestore(t *testing.T) {
	api := &mockAdminAPI{token: "t", pending: []models.PendingSubmission{{SubmissionID: "1"}}}
	svc, repo := newTestSessionService(api)
	res, err := svc.Login(context.Background(), models.LoginRequest{Password: "pw"})
	require.NoError(t, err)

	status := svc.Restore(context.Background(), res.SessionToken)
	assert.True(t, status.Authenticated)

	claims, _ := svc.ValidateHandle(res.SessionToken)
	stored, err := repo.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Len(t, stored.Pending, 1)

	api.pendingErr = appErrors.Clone(appErrors.ErrUnauthorized, "")
	status = svc.Restore(context.Background(), res.SessionToken)
	assert.False(t, status.Authenticated)
	_, err = repo.Get(context.Background(), claims.SessionID)
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
}

func TestSessionServiceRestoreRejectsGarbageHandle(t *testing.T) {
	svc, _ := newTestSessionService(&mockAdminAPI{})
	assert.False(t, svc.Restore(context.Background(), "not-a-jwt").Authenticated)
	assert.False(t, svc.Restore(context.Background(), "").Authenticated)
}

func TestSessionServiceAuthorizedLogsOutOn401(t *testing.T) {
	svc, repo := newTestSessionService(&mockAdminAPI{token: "t"})
	id := loginSession(t, svc)

	err := svc.Authorized(context.Background(), id, func(session *models.AdminSession) error {
		assert.Equal(t, "t", session.Token)
		return appErrors.Clone(appErrors.ErrUnauthorized, "expired")
	})
	assert.True(t, errors.Is(err, appErrors.ErrAuthExpired))
	_, err = repo.Get(context.Background(), id)
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
}

func TestSessionServiceAuthorizedKeepsSessionOnOtherErrors(t *testing.T) {
	svc, repo := newTestSessionService(&mockAdminAPI{token: "t"})
	id := loginSession(t, svc)

	err := svc.Authorized(context.Background(), id, func(session *models.AdminSession) error {
		return appErrors.ErrUpstreamUnavailable
	})
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
	_, err = repo.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestSessionServiceLogoutClearsEverything(t *testing.T) {
	svc, repo := newTestSessionService(&mockAdminAPI{token: "t"})
	id := loginSession(t, svc)

	require.NoError(t, svc.Update(context.Background(), id, func(s *models.AdminSession) error {
		s.Pending = []models.PendingSubmission{{SubmissionID: "9"}}
		s.VlogCache["9"] = models.VlogContent{VlogFilesCount: 1}
		s.Expanded["9"] = true
		s.Confirm = &models.DecisionIntent{SubmissionID: "9"}
		return nil
	}))

	require.NoError(t, svc.Logout(context.Background(), id))
	_, err := repo.Get(context.Background(), id)
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
}

func TestSessionServiceValidateHandleWrongSecret(t *testing.T) {
	svc, _ := newTestSessionService(&mockAdminAPI{token: "t"})
	res, err := svc.Login(context.Background(), models.LoginRequest{Password: "pw"})
	require.NoError(t, err)

	other := NewSessionService(repository.NewMemorySessionRepository(time.Hour), &mockAdminAPI{}, NewPasswordSealer("seal"), nil, nil, nil, SessionConfig{Secret: "other", Issuer: "hqhq-web"})
	_, err = other.ValidateHandle(res.SessionToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestPasswordSealerRejectsTampering(t *testing.T) {
	sealer := NewPasswordSealer("k")
	sealed, err := sealer.Seal("pw")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = sealer.Open(sealed)
	assert.Error(t, err)

	_, err = NewPasswordSealer("other").Open(sealed)
	assert.Error(t, err)
	_, err = sealer.Open([]byte("short"))
	assert.Error(t, err)
}
