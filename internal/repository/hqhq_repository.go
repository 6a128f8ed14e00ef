package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

const (
	maxRedirects     = 5
	maxErrorBodySize = 64 * 1024

	endpointLogin       = "login"
	endpointPending     = "pending_submissions"
	endpointVlogContent = "vlog_content"
	endpointApprove     = "approve_submission"
	endpointSubmit      = "submit_record"
)

// UpstreamObserver receives timings of calls made to the external API.
type UpstreamObserver interface {
	ObserveUpstream(endpoint string, status int, duration time.Duration)
}

// HQHQRepository talks to the externally owned hqhq record API.
type HQHQRepository struct {
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	observer UpstreamObserver
}

// NewHQHQRepository constructs the API client.
func NewHQHQRepository(baseURL string, timeout time.Duration, logger *zap.Logger) *HQHQRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HQHQRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newUpstreamClient(timeout),
		logger:  logger,
	}
}

// WithObserver attaches an upstream metrics observer.
func (r *HQHQRepository) WithObserver(observer UpstreamObserver) *HQHQRepository {
	r.observer = observer
	return r
}

func newUpstreamClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

type upstreamErrorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// text returns the most specific message the upstream offered.
func (b upstreamErrorBody) text() string {
	if len(b.Detail) > 0 {
		var s string
		if err := json.Unmarshal(b.Detail, &s); err == nil && s != "" {
			return s
		}
	}
	return b.Message
}

// Login exchanges the admin password for an access token.
func (r *HQHQRepository) Login(ctx context.Context, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode login payload")
	}
	req, err := r.newRequest(ctx, http.MethodPost, "/login", "", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.send(endpointLogin, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody := readErrorBody(resp.Body)
		return "", appErrors.Clone(appErrors.ErrInvalidCredentials, errBody.text())
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "invalid login response")
	}
	if payload.AccessToken == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	return payload.AccessToken, nil
}

// PendingSubmissions lists records awaiting moderation.
func (r *HQHQRepository) PendingSubmissions(ctx context.Context, token string) ([]models.PendingSubmission, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/pending-submissions", token, nil)
	if err != nil {
		return nil, err
	}
	var payload models.PendingSubmissionsPayload
	if err := r.doJSON(endpointPending, req, &payload); err != nil {
		return nil, err
	}
	if payload.PendingSubmissions == nil {
		return []models.PendingSubmission{}, nil
	}
	return payload.PendingSubmissions, nil
}

// VlogContent fetches the uploaded logs of a submission.
func (r *HQHQRepository) VlogContent(ctx context.Context, token string, id models.SubmissionID) (*models.VlogContent, error) {
	path := "/submission/" + url.PathEscape(string(id)) + "/vlog-content"
	req, err := r.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	var payload models.VlogContent
	if err := r.doJSON(endpointVlogContent, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ApproveSubmission sends a moderation decision.
func (r *HQHQRepository) ApproveSubmission(ctx context.Context, token string, decision models.DecisionRequest) (*models.DecisionResult, error) {
	body, err := json.Marshal(decision)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode decision")
	}
	req, err := r.newRequest(ctx, http.MethodPost, "/approve-submission", token, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := r.doJSON(endpointApprove, req, &payload); err != nil {
		return nil, err
	}
	result := &models.DecisionResult{
		SubmissionID: decision.SubmissionID,
		Approved:     decision.Approved,
		Success:      payload.Success,
		Message:      payload.Message,
	}
	if !payload.Success {
		message := payload.Message
		if message == "" {
			message = "an error occurred while processing the submission"
		}
		return result, appErrors.Clone(appErrors.ErrUpstreamRejected, message)
	}
	return result, nil
}

// SubmitRecord posts an encoded multipart record. The API answers with a
// JSON body on both success and failure.
func (r *HQHQRepository) SubmitRecord(ctx context.Context, contentType string, body io.Reader) (*models.SubmissionResult, error) {
	req, err := r.newRequest(ctx, http.MethodPost, "/submit-record", "", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.send(endpointSubmit, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to read submission response")
	}

	var payload struct {
		Success      bool                `json:"success"`
		SubmissionID models.SubmissionID `json:"submission_id"`
		Detail       json.RawMessage     `json:"detail"`
		Message      string              `json:"message"`
	}
	decodeErr := json.Unmarshal(raw, &payload)
	message := upstreamErrorBody{Detail: payload.Detail, Message: payload.Message}.text()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamStatusError(resp.StatusCode, message)
	}
	if decodeErr != nil {
		return nil, appErrors.Wrap(decodeErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "invalid submission response")
	}

	result := models.SubmissionResult{
		Success:      payload.Success,
		SubmissionID: string(payload.SubmissionID),
		Message:      message,
	}
	if !result.Success {
		if message == "" {
			message = "submission failed"
		}
		return &result, appErrors.Clone(appErrors.ErrUpstreamRejected, message)
	}
	return &result, nil
}

func (r *HQHQRepository) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (r *HQHQRepository) send(endpoint string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := r.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		r.observe(endpoint, 0, duration)
		r.logger.Warn("upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	r.observe(endpoint, resp.StatusCode, duration)
	r.logger.Debug("upstream request", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.Duration("latency", duration))
	return resp, nil
}

// doJSON sends an authorized request and decodes a 2xx body into dest.
// A 401 is reported as ErrUnauthorized so callers can end the session.
func (r *HQHQRepository) doJSON(endpoint string, req *http.Request, dest interface{}) error {
	resp, err := r.send(endpoint, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized {
		return appErrors.Clone(appErrors.ErrUnauthorized, "upstream rejected the access token")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamStatusError(resp.StatusCode, readErrorBody(resp.Body).text())
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "invalid upstream response")
	}
	return nil
}

func (r *HQHQRepository) observe(endpoint string, status int, duration time.Duration) {
	if r.observer != nil {
		r.observer.ObserveUpstream(endpoint, status, duration)
	}
}

func readErrorBody(body io.Reader) upstreamErrorBody {
	var payload upstreamErrorBody
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return payload
	}
	_ = json.Unmarshal(raw, &payload)
	return payload
}

func upstreamStatusError(status int, message string) *appErrors.Error {
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return appErrors.Clone(appErrors.ErrUpstream, message)
}
