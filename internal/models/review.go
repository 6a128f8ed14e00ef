package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SubmissionID is the upstream identifier of a submission. The API has
// returned it both as a string and as a number, so both decode.
type SubmissionID string

// UnmarshalJSON accepts JSON strings and numbers.
func (id *SubmissionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SubmissionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("submission id: %w", err)
	}
	*id = SubmissionID(n.String())
	return nil
}

// PendingSubmission is a record awaiting moderation, as returned upstream.
type PendingSubmission struct {
	SubmissionID      SubmissionID `json:"submission_id"`
	Category          Category     `json:"category"`
	Moon              *string      `json:"moon,omitempty"`
	Version           string       `json:"version,omitempty"`
	DiscordJoined     string       `json:"discord_joined,omitempty"`
	DiscordHandle     string       `json:"discord_handle"`
	TeamMembers       []string     `json:"team_members"`
	SingleDayEarnings *int64       `json:"single_day_earnings,omitempty"`
	QuotaAchieved     *int64       `json:"quota_achieved,omitempty"`
	QuotaReached      *int64       `json:"quota_reached,omitempty"`
	QuotaFilled       *int64       `json:"quota_filled,omitempty"`
	VideoLinks        [][]string   `json:"video_links"`
	Timestamp         string       `json:"timestamp"`
}

// PendingSubmissionsPayload wraps the upstream pending list.
type PendingSubmissionsPayload struct {
	PendingSubmissions []PendingSubmission `json:"pending_submissions"`
}

// VlogEntry is the log content uploaded for one player.
type VlogEntry struct {
	PlayerIndex int     `json:"player_index"`
	PlayerName  *string `json:"player_name,omitempty"`
	Content     *string `json:"content,omitempty"`
	Error       *string `json:"error,omitempty"`
	FileSize    *int64  `json:"file_size,omitempty"`
	LineCount   *int    `json:"line_count,omitempty"`
}

// DisplayName falls back to a positional label when the upstream omits the player name.
func (v VlogEntry) DisplayName() string {
	if v.PlayerName != nil && *v.PlayerName != "" {
		return *v.PlayerName
	}
	return fmt.Sprintf("Player %d", v.PlayerIndex+1)
}

// VlogContent is the lazily fetched log bundle of a submission.
type VlogContent struct {
	VlogFilesCount int         `json:"vlog_files_count"`
	VlogContents   []VlogEntry `json:"vlog_contents"`
}

// DecisionIntent binds an open confirmation prompt to its target.
type DecisionIntent struct {
	SubmissionID SubmissionID `json:"submission_id"`
	Approved     bool         `json:"approved"`
}

// DecisionRequest is the upstream moderation body.
type DecisionRequest struct {
	SubmissionID SubmissionID `json:"submission_id"`
	Approved     bool         `json:"approved"`
	Version      string       `json:"version"`
	Password     string       `json:"password"`
	Reason       *string      `json:"reason,omitempty"`
}

// DecisionResult is the outcome of a moderation call.
type DecisionResult struct {
	SubmissionID SubmissionID `json:"submission_id"`
	Approved     bool         `json:"approved"`
	Success      bool         `json:"success"`
	Message      string       `json:"message,omitempty"`
}

// CategoryAll disables the review list category filter.
const CategoryAll = "All"

// ReviewRow is a pending submission as shown on the review page.
type ReviewRow struct {
	PendingSubmission
	ShortName       string       `json:"short_name"`
	Expanded        bool         `json:"expanded"`
	Vlog            *VlogContent `json:"vlog,omitempty"`
	VlogUnavailable bool         `json:"vlog_unavailable,omitempty"`
}

// VlogToggleResult reports the expansion state after a toggle.
type VlogToggleResult struct {
	SubmissionID SubmissionID `json:"submission_id"`
	Expanded     bool         `json:"expanded"`
	Vlog         *VlogContent `json:"vlog,omitempty"`
	Unavailable  bool         `json:"unavailable,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// VlogDownload is a single player's log ready to be served as a file.
type VlogDownload struct {
	Filename string
	Content  []byte
}
