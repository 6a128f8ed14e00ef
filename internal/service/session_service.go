package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

// SessionRepository persists admin sessions keyed by session id.
type SessionRepository interface {
	Create(ctx context.Context, session *models.AdminSession) error
	Get(ctx context.Context, id string) (*models.AdminSession, error)
	Update(ctx context.Context, id string, fn func(*models.AdminSession) error) error
	Delete(ctx context.Context, id string) error
}

// AdminAPI is the upstream surface used by the review console.
type AdminAPI interface {
	Login(ctx context.Context, password string) (string, error)
	PendingSubmissions(ctx context.Context, token string) ([]models.PendingSubmission, error)
	VlogContent(ctx context.Context, token string, id models.SubmissionID) (*models.VlogContent, error)
	ApproveSubmission(ctx context.Context, token string, decision models.DecisionRequest) (*models.DecisionResult, error)
}

// SessionConfig configures the session handle.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// SessionService owns the admin credential pair and its lifetime.
type SessionService struct {
	repo      SessionRepository
	api       AdminAPI
	sealer    *PasswordSealer
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo SessionRepository, api AdminAPI, sealer *PasswordSealer, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &SessionService{
		repo:      repo,
		api:       api,
		sealer:    sealer,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// Login exchanges the admin password upstream and opens a session.
func (s *SessionService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "password is required")
	}

	token, err := s.api.Login(ctx, req.Password)
	if err != nil {
		s.metrics.RecordLogin("failed")
		return nil, err
	}

	sealed, err := s.sealer.Seal(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.AdminSession{
		ID:             uuid.NewString(),
		Token:          token,
		SealedPassword: sealed,
		Pending:        []models.PendingSubmission{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if pending, err := s.api.PendingSubmissions(ctx, token); err != nil {
		s.logger.Warn("failed to seed pending list", zap.String("session_id", session.ID), zap.Error(err))
	} else if pending != nil {
		session.Pending = pending
	}
	session.EnsureMaps()
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}

	handle, expiresAt, err := s.issueHandle(session.ID, now)
	if err != nil {
		_ = s.repo.Delete(ctx, session.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session handle")
	}

	s.metrics.RecordLogin("success")
	s.logger.Info("admin logged in", zap.String("session_id", session.ID))
	return &models.LoginResponse{SessionToken: handle, ExpiresAt: expiresAt}, nil
}

// Restore re-validates a stored handle against the upstream. Any failure
// discards the session silently and reports it as unauthenticated.
func (s *SessionService) Restore(ctx context.Context, handle string) *models.SessionStatus {
	claims, err := s.ValidateHandle(handle)
	if err != nil {
		return &models.SessionStatus{Authenticated: false}
	}
	session, err := s.repo.Get(ctx, claims.SessionID)
	if err != nil {
		return &models.SessionStatus{Authenticated: false}
	}

	pending, err := s.api.PendingSubmissions(ctx, session.Token)
	if err != nil {
		s.logger.Debug("stored session rejected", zap.String("session_id", session.ID), zap.Error(err))
		if delErr := s.repo.Delete(ctx, session.ID); delErr != nil {
			s.logger.Warn("failed to discard session", zap.String("session_id", session.ID), zap.Error(delErr))
		}
		return &models.SessionStatus{Authenticated: false}
	}

	err = s.repo.Update(ctx, session.ID, func(current *models.AdminSession) error {
		current.Pending = pending
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to seed pending list", zap.String("session_id", session.ID), zap.Error(err))
	}
	return &models.SessionStatus{Authenticated: true}
}

// Logout removes the session and everything held with it.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.logger.Info("admin logged out", zap.String("session_id", sessionID))
	return nil
}

// Get loads the session record.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.AdminSession, error) {
	return s.repo.Get(ctx, sessionID)
}

// Update mutates the session record atomically.
func (s *SessionService) Update(ctx context.Context, sessionID string, fn func(*models.AdminSession) error) error {
	return s.repo.Update(ctx, sessionID, func(session *models.AdminSession) error {
		session.EnsureMaps()
		if err := fn(session); err != nil {
			return err
		}
		session.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Authorized runs call with the session's upstream token. An upstream 401
// ends the session and is reported as ErrAuthExpired.
func (s *SessionService) Authorized(ctx context.Context, sessionID string, call func(session *models.AdminSession) error) error {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.EnsureMaps()
	err = call(session)
	if err == nil {
		return nil
	}
	if errors.Is(err, appErrors.ErrUnauthorized) {
		if delErr := s.repo.Delete(ctx, sessionID); delErr != nil {
			s.logger.Warn("failed to discard expired session", zap.String("session_id", sessionID), zap.Error(delErr))
		}
		s.logger.Info("upstream token expired", zap.String("session_id", sessionID))
		return appErrors.Wrap(err, appErrors.ErrAuthExpired.Code, appErrors.ErrAuthExpired.Status, appErrors.ErrAuthExpired.Message)
	}
	return err
}

// Password unseals the admin password held by the session.
func (s *SessionService) Password(session *models.AdminSession) (string, error) {
	return s.sealer.Open(session.SealedPassword)
}

// ValidateHandle parses a session handle and returns its claims.
func (s *SessionService) ValidateHandle(handle string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(handle, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}

func (s *SessionService) issueHandle(sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.config.TTL)
	claims := models.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
