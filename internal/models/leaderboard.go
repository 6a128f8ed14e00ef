package models

import "net/url"

// LeaderboardEntry is an accepted record from the public feed. Category
// holds the tab short name (HQ, SDC, SMHQ).
type LeaderboardEntry struct {
	Category   string     `json:"category"`
	Version    string     `json:"version"`
	Moon       string     `json:"moon,omitempty"`
	Players    []string   `json:"players"`
	VideoLinks [][]string `json:"videoLinks"`
	MaxQuota   int64      `json:"maxQuota"`
	FillQuota  int64      `json:"fillQuota"`
	Q          int64      `json:"q"`
}

// Leaderboard tabs.
const (
	TabHQ   = "HQ"
	TabSDC  = "SDC"
	TabSMHQ = "SMHQ"
)

// Tabs lists the leaderboard tabs in display order.
var Tabs = []string{TabHQ, TabSDC, TabSMHQ}

// Sentinel filter values that disable their predicate.
const (
	AnyPlayers = "0 Player"
	AnyVersion = "v0"
	AnyMoon    = "moon"
)

// LeaderboardFilter is the filter state of the leaderboard page.
type LeaderboardFilter struct {
	Tab     string `json:"tab"`
	Players string `json:"players"`
	Version string `json:"version"`
	Moon    string `json:"moon"`
}

// DefaultLeaderboardFilter is the state the page opens with.
func DefaultLeaderboardFilter() LeaderboardFilter {
	return LeaderboardFilter{Tab: TabHQ, Players: AnyPlayers, Version: AnyVersion, Moon: AnyMoon}
}

// Query encodes the filter as URL parameters. Sentinel values are left out.
func (f LeaderboardFilter) Query() url.Values {
	q := url.Values{}
	if f.Tab != "" {
		q.Set("tab", f.Tab)
	}
	if f.Players != "" && f.Players != AnyPlayers {
		q.Set("players", f.Players)
	}
	if f.Version != "" && f.Version != AnyVersion {
		q.Set("version", f.Version)
	}
	if f.Moon != "" && f.Moon != AnyMoon {
		q.Set("moon", f.Moon)
	}
	return q
}

// MoonApplies reports whether the moon predicate is active on the filter's tab.
func (f LeaderboardFilter) MoonApplies() bool {
	return (f.Tab == TabSDC || f.Tab == TabSMHQ) && f.Moon != "" && f.Moon != AnyMoon
}

// LeaderboardPage is a filtered board.
type LeaderboardPage struct {
	Filter  LeaderboardFilter  `json:"filter"`
	Total   int                `json:"total"`
	Entries []LeaderboardEntry `json:"entries"`
}
