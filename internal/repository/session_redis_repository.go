package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

const (
	sessionKeyPrefix    = "hqhq:session:"
	maxSessionTxRetries = 5
)

// RedisSessionRepository stores admin sessions in Redis so several BFF
// instances can serve the same tab.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionRepository constructs a Redis backed session store.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionRepository{client: client, ttl: ttl, logger: logger}
}

// Create stores a new session with the configured TTL.
func (r *RedisSessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", session.ID, err)
	}
	return nil
}

// Get loads a session.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	return decodeSession(id, raw)
}

// Update applies fn inside a WATCH/MULTI transaction, retrying when another
// request modified the session concurrently. The TTL is left untouched.
func (r *RedisSessionRepository) Update(ctx context.Context, id string, fn func(*models.AdminSession) error) error {
	key := r.key(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return appErrors.ErrSessionNotFound
			}
			return fmt.Errorf("redis get session %s: %w", id, err)
		}
		session, err := decodeSession(id, raw)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		payload, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSessionTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("session update contended", zap.String("session_id", id), zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}
	return appErrors.Clone(appErrors.ErrConflict, "session is busy, try again")
}

// Delete removes the session and everything it holds.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", id, err)
	}
	return nil
}

func (r *RedisSessionRepository) key(id string) string {
	return sessionKeyPrefix + id
}

func decodeSession(id string, raw []byte) (*models.AdminSession, error) {
	var session models.AdminSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	session.EnsureMaps()
	return &session, nil
}
