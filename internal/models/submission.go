package models

import (
	"io"
	"strings"
)

// Category identifies the challenge a record is submitted for.
type Category string

const (
	CategoryHighQuota      Category = "high_quota"
	CategorySingleDayClear Category = "single_day_clear"
	CategorySingleMoonHQ   Category = "single_moon_hq"
)

// Categories lists the submittable categories in form order.
var Categories = []Category{CategoryHighQuota, CategorySingleDayClear, CategorySingleMoonHQ}

// ShortName returns the fixed display abbreviation used by the review page and leaderboard tabs.
func (c Category) ShortName() string {
	switch c {
	case CategoryHighQuota:
		return "HQ"
	case CategorySingleDayClear:
		return "SDC"
	case CategorySingleMoonHQ:
		return "SMHQ"
	default:
		return string(c)
	}
}

// Label is the long human readable name.
func (c Category) Label() string {
	switch c {
	case CategoryHighQuota:
		return "High Quota"
	case CategorySingleDayClear:
		return "Single Day Clear"
	case CategorySingleMoonHQ:
		return "Single Moon HQ"
	default:
		return string(c)
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RequiresMoon reports whether records of this category name a moon.
func (c Category) RequiresMoon() bool {
	return c == CategorySingleDayClear || c == CategorySingleMoonHQ
}

// RequiresEarnings reports whether records of this category carry single day earnings.
func (c Category) RequiresEarnings() bool {
	return c == CategorySingleDayClear
}

// RequiresQuota reports whether records of this category carry the three quota figures.
func (c Category) RequiresQuota() bool {
	return c == CategoryHighQuota || c == CategorySingleMoonHQ
}

// Moons are the selectable locations, in form order.
var Moons = []string{
	"Experimentation",
	"Assurance",
	"Vow",
	"Offense",
	"March",
	"Adamance",
	"Rend",
	"Dine",
	"Titan",
	"Artifice",
	"Embrion",
}

// Versions are the known game release tags accepted on submission.
var Versions = []string{"v40", "v45", "v49", "v50", "v56", "v62", "v64", "v69", "v72", "v73"}

const (
	DiscordJoinedYes = "yes"
	DiscordJoinedNo  = "no"

	// MaxTeamMembers is the number of roster slots on the form.
	MaxTeamMembers = 4
)

// FileAttachment is a log file picked for a player.
type FileAttachment struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Draft is an in-progress record held by the submitter until it is sent.
type Draft struct {
	DiscordJoined     string
	DiscordHandle     string
	TeamMembers       []string
	Category          Category
	Moon              string
	Version           string
	SingleDayEarnings *int64
	QuotaAchieved     *int64
	QuotaReached      *int64
	QuotaFilled       *int64
	VideoLinks        [][]string
	VlogFiles         [][]*FileAttachment
}

// ActiveTeamMembers returns the roster with blank slots removed.
func (d Draft) ActiveTeamMembers() []string {
	active := make([]string, 0, len(d.TeamMembers))
	for _, member := range d.TeamMembers {
		if strings.TrimSpace(member) != "" {
			active = append(active, member)
		}
	}
	return active
}

// FilesFor returns the non-nil attachments of the player at index.
func (d Draft) FilesFor(index int) []*FileAttachment {
	if index < 0 || index >= len(d.VlogFiles) {
		return nil
	}
	files := make([]*FileAttachment, 0, len(d.VlogFiles[index]))
	for _, f := range d.VlogFiles[index] {
		if f != nil {
			files = append(files, f)
		}
	}
	return files
}

// FieldError annotates a single invalid draft field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmissionResult is the upstream acknowledgement of an accepted draft.
type SubmissionResult struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submission_id"`
	Message      string `json:"message,omitempty"`
}
