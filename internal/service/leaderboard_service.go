package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
	"github.com/noah-isme/hqhq-web/pkg/export"
)

const leaderboardCacheKey = "leaderboard:feed"

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// LeaderboardFeed loads the accepted records.
type LeaderboardFeed interface {
	Fetch(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// LeaderboardService serves the filtered public leaderboard.
type LeaderboardService struct {
	feed   LeaderboardFeed
	cache  *CacheService
	ttl    time.Duration
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	warmer Trigger
	logger *zap.Logger
}

// Trigger schedules an out-of-band run of a background job.
type Trigger interface {
	Trigger()
}

// NewLeaderboardService constructs the leaderboard service. cache may be nil.
func NewLeaderboardService(feed LeaderboardFeed, cache *CacheService, ttl time.Duration, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		feed:   feed,
		cache:  cache,
		ttl:    ttl,
		csv:    export.NewCSVExporter(true),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Entries returns the whole feed and whether it came from cache.
func (s *LeaderboardService) Entries(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	var cached []models.LeaderboardEntry
	if s.cache.Get(ctx, leaderboardCacheKey, &cached) {
		return cached, true, nil
	}
	entries, err := s.feed.Fetch(ctx)
	if err != nil {
		s.logger.Warn("leaderboard feed unavailable", zap.Error(err))
		return nil, false, err
	}
	s.cache.Set(ctx, leaderboardCacheKey, entries, s.ttl)
	return entries, false, nil
}

// WithPDFFont renders PDF exports with the given TrueType font.
func (s *LeaderboardService) WithPDFFont(ttf []byte) *LeaderboardService {
	s.pdf.WithFont(ttf)
	return s
}

// WithWarmer lets Refresh reload the cache in the background.
func (s *LeaderboardService) WithWarmer(w Trigger) *LeaderboardService {
	s.warmer = w
	return s
}

// Refresh drops the cached feed and asks the warmer, if any, to reload it.
func (s *LeaderboardService) Refresh(ctx context.Context) {
	s.cache.Invalidate(ctx, leaderboardCacheKey)
	if s.warmer != nil {
		s.warmer.Trigger()
	}
	s.logger.Info("leaderboard cache refreshed", zap.Bool("warm", s.warmer != nil))
}

// Warm reloads the feed into the cache. A failed reload keeps the cached copy.
func (s *LeaderboardService) Warm(ctx context.Context) error {
	if !s.cache.Enabled() {
		return nil
	}
	entries, err := s.feed.Fetch(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(ctx, leaderboardCacheKey, entries, s.ttl)
	return nil
}

// Board returns the entries matching filter in feed order.
func (s *LeaderboardService) Board(ctx context.Context, filter models.LeaderboardFilter) (*models.LeaderboardPage, bool, error) {
	entries, hit, err := s.Entries(ctx)
	if err != nil {
		return nil, false, err
	}
	filtered := FilterLeaderboard(entries, filter)
	return &models.LeaderboardPage{Filter: filter, Total: len(filtered), Entries: filtered}, hit, nil
}

// Export renders the filtered board in the requested format.
func (s *LeaderboardService) Export(ctx context.Context, filter models.LeaderboardFilter, format string) (*ExportFile, error) {
	page, _, err := s.Board(ctx, filter)
	if err != nil {
		return nil, err
	}
	table := LeaderboardTable(page)
	base := "leaderboard_" + strings.ToLower(filter.Tab)

	switch strings.ToLower(format) {
	case "", ExportFormatCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: base + ".csv", ContentType: "text/csv; charset=utf-8", Content: content}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// FilterLeaderboard applies the tab, player count, version and moon
// predicates. The input slice is not modified.
func FilterLeaderboard(entries []models.LeaderboardEntry, filter models.LeaderboardFilter) []models.LeaderboardEntry {
	playerCount := -1
	if filter.Players != "" && filter.Players != models.AnyPlayers {
		if n, ok := parsePlayerCount(filter.Players); ok {
			playerCount = n
		}
	}
	versionApplies := filter.Version != "" && filter.Version != models.AnyVersion
	moonApplies := filter.MoonApplies()

	out := make([]models.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Category != filter.Tab {
			continue
		}
		if playerCount >= 0 && len(entry.Players) != playerCount {
			continue
		}
		if versionApplies && entry.Version != filter.Version {
			continue
		}
		if moonApplies && entry.Moon != filter.Moon {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// ParseLeaderboardFilter reads a filter from URL parameters. Missing
// parameters fall back to the page defaults.
func ParseLeaderboardFilter(q url.Values) (models.LeaderboardFilter, error) {
	filter := models.DefaultLeaderboardFilter()

	if tab := strings.TrimSpace(q.Get("tab")); tab != "" {
		if !knownTab(tab) {
			return filter, appErrors.Clone(appErrors.ErrValidation, "tab must be one of HQ, SDC, SMHQ")
		}
		filter.Tab = tab
	}
	if players := strings.TrimSpace(q.Get("players")); players != "" {
		n, ok := parsePlayerCount(players)
		if !ok || n < 0 || n > models.MaxTeamMembers {
			return filter, appErrors.Clone(appErrors.ErrValidation, "players must look like \"2 Player\"")
		}
		filter.Players = players
	}
	if version := strings.TrimSpace(q.Get("version")); version != "" {
		filter.Version = version
	}
	if moon := strings.TrimSpace(q.Get("moon")); moon != "" {
		filter.Moon = moon
	}
	return filter, nil
}

// LeaderboardTable lays out a page for export.
func LeaderboardTable(page *models.LeaderboardPage) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("HQHQ Leaderboard - %s", page.Filter.Tab),
		Headers: []string{"Rank", "Category", "Version", "Moon", "Players", "Fill Quota", "Max Quota", "Quotas", "Videos"},
		Widths:  []float64{1, 1.5, 1.2, 1.8, 6, 1.8, 1.8, 1.2, 3},
		Rows:    make([][]string, 0, len(page.Entries)),
	}
	for i, entry := range page.Entries {
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(i + 1),
			entry.Category,
			entry.Version,
			entry.Moon,
			strings.Join(entry.Players, ", "),
			strconv.FormatInt(entry.FillQuota, 10),
			strconv.FormatInt(entry.MaxQuota, 10),
			strconv.FormatInt(entry.Q, 10),
			strings.Join(firstLinks(entry.VideoLinks), " "),
		})
	}
	return table
}

func firstLinks(links [][]string) []string {
	out := make([]string, 0, len(links))
	for _, perPlayer := range links {
		for _, link := range perPlayer {
			if strings.TrimSpace(link) != "" {
				out = append(out, link)
				break
			}
		}
	}
	return out
}

func parsePlayerCount(raw string) (int, bool) {
	fields := strings.Fields(raw)
	if len(fields) != 2 || fields[1] != "Player" {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

func knownTab(tab string) bool {
	for _, t := range models.Tabs {
		if t == tab {
			return true
		}
	}
	return false
}
