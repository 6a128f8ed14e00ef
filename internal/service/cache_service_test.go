package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestCacheServiceDisabledWithoutRepo(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())

	svc := NewCacheService(nil, nil, 0, nil)
	assert.False(t, svc.Enabled())

	var dest []models.LeaderboardEntry
	assert.False(t, svc.Get(context.Background(), "k", &dest))
	svc.Set(context.Background(), "k", dest, time.Minute)
	svc.Invalidate(context.Background(), "k")
}

func TestCacheServiceHitMissAndInvalidate(t *testing.T) {
	repo := &memoryCacheRepo{items: map[string]interface{}{}}
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop())

	var dest []models.LeaderboardEntry
	assert.False(t, svc.Get(context.Background(), "board", &dest))

	svc.Set(context.Background(), "board", sampleBoard(), 0)
	assert.True(t, svc.Get(context.Background(), "board", &dest))
	assert.Len(t, dest, 5)

	svc.Invalidate(context.Background(), "board")
	assert.False(t, svc.Get(context.Background(), "board", &dest))
}

func TestCacheServiceDegradesOnBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, time.Minute, zap.NewNop())

	var dest []models.LeaderboardEntry
	assert.False(t, svc.Get(context.Background(), "board", &dest))
	svc.Set(context.Background(), "board", sampleBoard(), 0)
	svc.Invalidate(context.Background(), "board")
}
