package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

const (
	endpointLeaderboardFeed = "leaderboard_feed"
	maxFeedSize             = 16 * 1024 * 1024
)

// LeaderboardFeedRepository downloads the static leaderboard feed.
type LeaderboardFeedRepository struct {
	feedURL  string
	client   *http.Client
	logger   *zap.Logger
	observer UpstreamObserver
}

// NewLeaderboardFeedRepository constructs the feed reader.
func NewLeaderboardFeedRepository(feedURL string, timeout time.Duration, logger *zap.Logger) *LeaderboardFeedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardFeedRepository{feedURL: feedURL, client: newUpstreamClient(timeout), logger: logger}
}

// WithObserver attaches an upstream metrics observer.
func (r *LeaderboardFeedRepository) WithObserver(observer UpstreamObserver) *LeaderboardFeedRepository {
	r.observer = observer
	return r
}

// Fetch downloads and strictly decodes the feed.
func (r *LeaderboardFeedRepository) Fetch(ctx context.Context) ([]models.LeaderboardEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build feed request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.observe(0, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to fetch leaderboard feed")
	}
	defer resp.Body.Close() //nolint:errcheck
	r.observe(resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamStatusError(resp.StatusCode, "")
	}

	entries, err := DecodeLeaderboardFeed(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		r.logger.Warn("leaderboard feed rejected", zap.String("url", r.feedURL), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "leaderboard feed is not valid JSON")
	}
	return entries, nil
}

// DecodeLeaderboardFeed parses a feed that must be exactly one JSON array.
// Anything after the array, such as script statements, is an error.
func DecodeLeaderboardFeed(r io.Reader) ([]models.LeaderboardEntry, error) {
	dec := json.NewDecoder(r)
	var entries []models.LeaderboardEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode feed: unexpected data after array")
	}
	if entries == nil {
		return nil, fmt.Errorf("decode feed: expected an array")
	}
	for i := range entries {
		normaliseEntry(&entries[i])
	}
	return entries, nil
}

// normaliseEntry pads videoLinks to one slot per player.
func normaliseEntry(entry *models.LeaderboardEntry) {
	if entry.Players == nil {
		entry.Players = []string{}
	}
	for len(entry.VideoLinks) < len(entry.Players) {
		entry.VideoLinks = append(entry.VideoLinks, []string{})
	}
}

func (r *LeaderboardFeedRepository) observe(status int, duration time.Duration) {
	if r.observer != nil {
		r.observer.ObserveUpstream(endpointLeaderboardFeed, status, duration)
	}
}
