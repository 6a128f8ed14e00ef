package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

const vlogUnavailableMessage = "log content is unavailable"

var whitespaceRun = regexp.MustCompile(`\s+`)

// ReviewService drives the moderation console for a logged in session.
type ReviewService struct {
	sessions *SessionService
	api      AdminAPI
	version  string
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReviewService constructs the review service. version is sent with
// every decision.
func NewReviewService(sessions *SessionService, api AdminAPI, version string, metrics *MetricsService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{sessions: sessions, api: api, version: version, metrics: metrics, logger: logger}
}

// FetchPending replaces the pending collection with a fresh upstream copy.
// On failure the previous collection is kept.
func (s *ReviewService) FetchPending(ctx context.Context, sessionID string) ([]models.PendingSubmission, error) {
	var pending []models.PendingSubmission
	err := s.sessions.Authorized(ctx, sessionID, func(session *models.AdminSession) error {
		list, err := s.api.PendingSubmissions(ctx, session.Token)
		if err != nil {
			return err
		}
		pending = list
		return s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
			current.Pending = list
			return nil
		})
	})
	if err != nil {
		s.logger.Warn("failed to fetch pending submissions", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return pending, nil
}

// List returns the review rows for category, or every row for "All".
func (s *ReviewService) List(ctx context.Context, sessionID, category string) ([]models.ReviewRow, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.EnsureMaps()
	return BuildReviewRows(session, category), nil
}

// FilterPending keeps the submissions of one category, preserving order.
func FilterPending(pending []models.PendingSubmission, category string) []models.PendingSubmission {
	out := make([]models.PendingSubmission, 0, len(pending))
	for _, sub := range pending {
		if category == "" || category == models.CategoryAll || string(sub.Category) == category {
			out = append(out, sub)
		}
	}
	return out
}

// BuildReviewRows decorates the filtered pending list with display state.
func BuildReviewRows(session *models.AdminSession, category string) []models.ReviewRow {
	filtered := FilterPending(session.Pending, category)
	rows := make([]models.ReviewRow, 0, len(filtered))
	for _, sub := range filtered {
		row := models.ReviewRow{
			PendingSubmission: sub,
			ShortName:         sub.Category.ShortName(),
			Expanded:          session.Expanded[sub.SubmissionID],
		}
		if row.Expanded {
			if content, ok := session.VlogCache[sub.SubmissionID]; ok {
				c := content
				row.Vlog = &c
			} else {
				row.VlogUnavailable = true
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ToggleVlog flips the expansion of a row. The first expansion loads the
// logs; a failed load still expands the row and reports the logs as
// unavailable instead of failing the call.
func (s *ReviewService) ToggleVlog(ctx context.Context, sessionID string, id models.SubmissionID) (*models.VlogToggleResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.EnsureMaps()
	if _, ok := session.FindPending(id); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission is not pending")
	}

	if session.Expanded[id] {
		err := s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
			delete(current.Expanded, id)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &models.VlogToggleResult{SubmissionID: id, Expanded: false}, nil
	}

	if cached, ok := session.VlogCache[id]; ok {
		err := s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
			current.Expanded[id] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &models.VlogToggleResult{SubmissionID: id, Expanded: true, Vlog: &cached}, nil
	}

	content, loadErr, err := s.loadVlog(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}
	err = s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
		if _, ok := current.FindPending(id); !ok {
			return nil
		}
		current.Expanded[id] = true
		if content != nil {
			current.VlogCache[id] = *content
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &models.VlogToggleResult{SubmissionID: id, Expanded: true, Vlog: content}
	if loadErr != nil {
		result.Unavailable = true
		result.Message = vlogUnavailableMessage
	}
	return result, nil
}

// loadVlog fetches logs. Non-auth failures come back as loadErr so the
// caller can degrade; an expired token comes back as err.
func (s *ReviewService) loadVlog(ctx context.Context, sessionID string, id models.SubmissionID) (content *models.VlogContent, loadErr error, err error) {
	err = s.sessions.Authorized(ctx, sessionID, func(session *models.AdminSession) error {
		fetched, fetchErr := s.api.VlogContent(ctx, session.Token, id)
		if fetchErr != nil {
			if errors.Is(fetchErr, appErrors.ErrUnauthorized) {
				return fetchErr
			}
			loadErr = fetchErr
			return nil
		}
		content = fetched
		return nil
	})
	if loadErr != nil {
		s.logger.Warn("failed to load vlog content", zap.String("submission_id", string(id)), zap.Error(loadErr))
	}
	return content, loadErr, err
}

// DownloadVlog returns one player's log as a named file.
func (s *ReviewService) DownloadVlog(ctx context.Context, sessionID string, id models.SubmissionID, playerIndex int) (*models.VlogDownload, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.EnsureMaps()
	if _, ok := session.FindPending(id); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission is not pending")
	}

	content, cached := session.VlogCache[id]
	if !cached {
		loaded, loadErr, err := s.loadVlog(ctx, sessionID, id)
		if err != nil {
			return nil, err
		}
		if loadErr != nil {
			return nil, loadErr
		}
		if loaded == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log not found")
		}
		content = *loaded
		err = s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
			if _, ok := current.FindPending(id); ok {
				current.VlogCache[id] = content
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for _, entry := range content.VlogContents {
		if entry.PlayerIndex != playerIndex {
			continue
		}
		if entry.Content == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log has no content")
		}
		return &models.VlogDownload{
			Filename: VlogFilename(id, entry.DisplayName()),
			Content:  []byte(*entry.Content),
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "log not found")
}

// VlogFilename names a downloaded log after its submission and player.
func VlogFilename(id models.SubmissionID, playerName string) string {
	return string(id) + "_" + whitespaceRun.ReplaceAllString(playerName, "_") + ".log"
}

// RequestDecision opens the confirmation step for a pending row.
func (s *ReviewService) RequestDecision(ctx context.Context, sessionID string, id models.SubmissionID, approved bool) (*models.DecisionIntent, error) {
	intent := &models.DecisionIntent{SubmissionID: id, Approved: approved}
	err := s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
		if _, ok := current.FindPending(id); !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "submission is not pending")
		}
		current.Confirm = intent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// CancelDecision closes the confirmation step without sending anything.
func (s *ReviewService) CancelDecision(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
		current.Confirm = nil
		return nil
	})
}

// ConfirmDecision sends the decision the open confirmation step targets.
// A rejection with a blank reason is refused and the step stays open;
// otherwise the step closes before the request goes out.
func (s *ReviewService) ConfirmDecision(ctx context.Context, sessionID, reason string) (*models.DecisionResult, error) {
	var intent models.DecisionIntent
	err := s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
		if current.Confirm == nil {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "no decision is awaiting confirmation")
		}
		if !current.Confirm.Approved && strings.TrimSpace(reason) == "" {
			return rejectionReasonError()
		}
		intent = *current.Confirm
		current.Confirm = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Decide(ctx, sessionID, intent.SubmissionID, intent.Approved, reason)
}

// Decide sends an approve or reject decision and, on success, removes the
// row and everything cached for it.
func (s *ReviewService) Decide(ctx context.Context, sessionID string, id models.SubmissionID, approved bool, reason string) (*models.DecisionResult, error) {
	trimmed := strings.TrimSpace(reason)
	if !approved && trimmed == "" {
		return nil, rejectionReasonError()
	}

	var result *models.DecisionResult
	err := s.sessions.Authorized(ctx, sessionID, func(session *models.AdminSession) error {
		if _, ok := session.FindPending(id); !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "submission is not pending")
		}
		password, err := s.sessions.Password(session)
		if err != nil {
			return err
		}
		req := models.DecisionRequest{
			SubmissionID: id,
			Approved:     approved,
			Version:      s.version,
			Password:     password,
		}
		if !approved {
			req.Reason = &trimmed
		}

		res, err := s.api.ApproveSubmission(ctx, session.Token, req)
		if err != nil {
			return err
		}
		result = res
		return s.sessions.Update(ctx, sessionID, func(current *models.AdminSession) error {
			*current = ApplyDecision(*current, *res)
			return nil
		})
	})
	if err != nil {
		s.metrics.RecordDecision(approved, "failed")
		s.logger.Warn("moderation decision failed",
			zap.String("submission_id", string(id)),
			zap.Bool("approved", approved),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordDecision(approved, "success")
	s.logger.Info("moderation decision applied",
		zap.String("submission_id", string(id)),
		zap.Bool("approved", approved),
	)
	return result, nil
}

// ApplyDecision is the state transition for a successful decision: the row
// leaves the pending list together with its cached logs, expansion flag
// and any confirmation aimed at it. The input state is not modified.
func ApplyDecision(state models.AdminSession, result models.DecisionResult) models.AdminSession {
	if !result.Success {
		return state
	}
	id := result.SubmissionID

	next := state
	next.Pending = make([]models.PendingSubmission, 0, len(state.Pending))
	for _, sub := range state.Pending {
		if sub.SubmissionID != id {
			next.Pending = append(next.Pending, sub)
		}
	}

	next.VlogCache = make(map[models.SubmissionID]models.VlogContent, len(state.VlogCache))
	for k, v := range state.VlogCache {
		if k != id {
			next.VlogCache[k] = v
		}
	}

	next.Expanded = make(map[models.SubmissionID]bool, len(state.Expanded))
	for k, v := range state.Expanded {
		if k != id {
			next.Expanded[k] = v
		}
	}

	if state.Confirm != nil && state.Confirm.SubmissionID == id {
		next.Confirm = nil
	}
	return next
}

func rejectionReasonError() error {
	return &DraftValidationError{Fields: []models.FieldError{{Field: "reason", Message: "enter a rejection reason"}}}
}
