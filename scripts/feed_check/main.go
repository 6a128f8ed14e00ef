package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/hqhq-web/internal/models"
	"github.com/noah-isme/hqhq-web/internal/repository"
	"github.com/noah-isme/hqhq-web/internal/service"
)

type finding struct {
	Index   int
	Problem string
}

func main() {
	var (
		feedURL  string
		feedFile string
		timeout  time.Duration
	)

	flag.StringVar(&feedURL, "url", "https://f.asta.rs/krhq/hqhq.json", "Leaderboard feed URL")
	flag.StringVar(&feedFile, "file", "", "Read the feed from a local file instead of the URL")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	entries, err := loadEntries(feedURL, feedFile, timeout)
	if err != nil {
		log.Fatalf("failed to load feed: %v", err)
	}

	findings := inspect(entries)
	printReport(entries, findings)

	if len(findings) > 0 {
		os.Exit(1)
	}
}

func loadEntries(feedURL, feedFile string, timeout time.Duration) ([]models.LeaderboardEntry, error) {
	if feedFile != "" {
		f, err := os.Open(feedFile)
		if err != nil {
			return nil, err
		}
		defer f.Close() //nolint:errcheck
		return repository.DecodeLeaderboardFeed(f)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return repository.NewLeaderboardFeedRepository(feedURL, timeout, nil).Fetch(ctx)
}

func inspect(entries []models.LeaderboardEntry) []finding {
	var findings []finding
	for i, e := range entries {
		switch {
		case !knownTab(e.Category):
			findings = append(findings, finding{i, fmt.Sprintf("unknown category %q", e.Category)})
		case e.Category != models.TabHQ && strings.TrimSpace(e.Moon) == "":
			findings = append(findings, finding{i, "moon missing"})
		}
		if len(e.Players) == 0 || len(e.Players) > models.MaxTeamMembers {
			findings = append(findings, finding{i, fmt.Sprintf("%d players", len(e.Players))})
		}
		if !strings.HasPrefix(e.Version, "v") {
			findings = append(findings, finding{i, fmt.Sprintf("version %q", e.Version)})
		}
	}
	return findings
}

func knownTab(category string) bool {
	for _, tab := range models.Tabs {
		if tab == category {
			return true
		}
	}
	return false
}

func printReport(entries []models.LeaderboardEntry, findings []finding) {
	fmt.Println("Leaderboard Feed Report")
	fmt.Println("=======================")
	fmt.Printf("Entries: %d\n", len(entries))
	for _, tab := range models.Tabs {
		filter := models.DefaultLeaderboardFilter()
		filter.Tab = tab
		fmt.Printf("  %-5s %d\n", tab, len(service.FilterLeaderboard(entries, filter)))
	}
	for _, f := range findings {
		fmt.Printf("[WARN] entry %d: %s\n", f.Index, f.Problem)
	}
	fmt.Printf("Findings: %d\n", len(findings))
}
