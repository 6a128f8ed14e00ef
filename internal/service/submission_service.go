package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

// RecordAPI is the upstream surface used for record intake.
type RecordAPI interface {
	SubmitRecord(ctx context.Context, contentType string, body io.Reader) (*models.SubmissionResult, error)
}

// SubmissionService validates, encodes and forwards record drafts.
type SubmissionService struct {
	api     RecordAPI
	rules   SubmissionRules
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSubmissionService constructs the intake service.
func NewSubmissionService(api RecordAPI, rules SubmissionRules, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{api: api, rules: rules, metrics: metrics, logger: logger}
}

// Rules exposes the active validation rules.
func (s *SubmissionService) Rules() SubmissionRules {
	return s.rules
}

// Submit runs a draft through the whole flow. Validation failures return a
// *DraftValidationError and nothing is sent.
func (s *SubmissionService) Submit(ctx context.Context, draft models.Draft, progress ProgressFunc) (*models.SubmissionResult, error) {
	flow := NewSubmissionFlow(s.rules)
	if err := flow.Edit(draft); err != nil {
		return nil, err
	}
	if err := flow.Begin(); err != nil {
		s.metrics.RecordSubmission(string(draft.Category), "invalid")
		return nil, err
	}

	tracker := newProgressTracker(progress)
	encoded, err := encodeSubmission(draft, tracker)
	if err != nil {
		_ = flow.Fail(err.Error())
		s.metrics.RecordSubmission(string(draft.Category), "failed")
		return nil, err
	}

	result, err := s.api.SubmitRecord(ctx, encoded.ContentType, encoded.Body)
	tracker.report(ProgressResponded)
	if err != nil {
		_ = flow.Fail(appErrors.FromError(err).Message)
		outcome := "failed"
		if errors.Is(err, appErrors.ErrUpstreamRejected) {
			outcome = "rejected"
		}
		s.metrics.RecordSubmission(string(draft.Category), outcome)
		s.logger.Warn("record submission failed",
			zap.String("category", string(draft.Category)),
			zap.Int("files", len(encoded.Files)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := flow.Succeed(result.SubmissionID); err != nil {
		return nil, err
	}
	tracker.report(ProgressCompleted)
	s.metrics.RecordSubmission(string(draft.Category), "accepted")
	s.logger.Info("record submitted",
		zap.String("submission_id", result.SubmissionID),
		zap.String("category", string(draft.Category)),
		zap.Int("files", len(encoded.Files)),
	)
	return result, nil
}
