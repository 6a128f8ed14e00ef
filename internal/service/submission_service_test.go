package service

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

type mockRecordAPI struct {
	calls       int
	contentType string
	body        string
	result      *models.SubmissionResult
	err         error
}

func (m *mockRecordAPI) SubmitRecord(ctx context.Context, contentType string, body io.Reader) (*models.SubmissionResult, error) {
	m.calls++
	m.contentType = contentType
	raw, _ := io.ReadAll(body)
	m.body = string(raw)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestSubmissionServiceSubmitSuccess(t *testing.T) {
	api := &mockRecordAPI{result: &models.SubmissionResult{Success: true, SubmissionID: "17"}}
	svc := NewSubmissionService(api, SubmissionRules{}, nil, zap.NewNop())

	var progress []int
	res, err := svc.Submit(context.Background(), validHQDraft(), func(p int) { progress = append(progress, p) })
	require.NoError(t, err)
	assert.Equal(t, "17", res.SubmissionID)
	assert.Equal(t, 1, api.calls)

	mediaType, _, err := mime.ParseMediaType(api.contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.True(t, strings.Contains(api.body, `filename="player1_empty.log"`))
	assert.Equal(t, ProgressCompleted, progress[len(progress)-1])
}

func TestSubmissionServiceInvalidDraftIsNotSent(t *testing.T) {
	api := &mockRecordAPI{}
	svc := NewSubmissionService(api, SubmissionRules{}, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), models.Draft{}, nil)
	var verr *DraftValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldDiscordJoined, verr.Focus())
	assert.Zero(t, api.calls)
}

func TestSubmissionServicePropagatesUpstreamMessage(t *testing.T) {
	api := &mockRecordAPI{err: appErrors.Clone(appErrors.ErrUpstream, "record already exists")}
	svc := NewSubmissionService(api, SubmissionRules{}, nil, zap.NewNop())

	var progress []int
	_, err := svc.Submit(context.Background(), validHQDraft(), func(p int) { progress = append(progress, p) })
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, "record already exists", appErrors.FromError(err).Message)
	assert.NotContains(t, progress, ProgressCompleted)
}
