package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/hqhq-web/internal/models"
)

// VlogFieldPrefix prefixes the multipart field holding one player's logs:
// vlog_files_0 for the first active team member, vlog_files_1 for the next.
const VlogFieldPrefix = "vlog_files_"

// SubmissionForm is the multipart body posted by the record form.
type SubmissionForm struct {
	DiscordJoined     string `form:"discord_joined"`
	DiscordHandle     string `form:"discord_handle"`
	TeamMembers       string `form:"team_members"`
	Category          string `form:"category"`
	Moon              string `form:"moon"`
	Version           string `form:"version"`
	SingleDayEarnings string `form:"single_day_earnings"`
	QuotaAchieved     string `form:"quota_achieved"`
	QuotaReached      string `form:"quota_reached"`
	QuotaFilled       string `form:"quota_filled"`
	VideoLinks        string `form:"video_links"`
}

// FormFromMultipart reads the text values of a parsed multipart form.
func FormFromMultipart(form *multipart.Form) SubmissionForm {
	get := func(key string) string {
		if form == nil {
			return ""
		}
		if values := form.Value[key]; len(values) > 0 {
			return values[0]
		}
		return ""
	}
	return SubmissionForm{
		DiscordJoined:     get("discord_joined"),
		DiscordHandle:     get("discord_handle"),
		TeamMembers:       get("team_members"),
		Category:          get("category"),
		Moon:              get("moon"),
		Version:           get("version"),
		SingleDayEarnings: get("single_day_earnings"),
		QuotaAchieved:     get("quota_achieved"),
		QuotaReached:      get("quota_reached"),
		QuotaFilled:       get("quota_filled"),
		VideoLinks:        get("video_links"),
	}
}

// ToDraft converts the form into a draft. Input that cannot be parsed at
// all, such as letters in a number field, is returned as field errors.
func (f SubmissionForm) ToDraft(files map[string][]*multipart.FileHeader) (models.Draft, []models.FieldError) {
	var errs []models.FieldError
	draft := models.Draft{
		DiscordJoined: strings.TrimSpace(f.DiscordJoined),
		DiscordHandle: f.DiscordHandle,
		Category:      models.Category(strings.TrimSpace(f.Category)),
		Moon:          strings.TrimSpace(f.Moon),
		Version:       strings.TrimSpace(f.Version),
	}

	membersOK := true
	if members, err := parseTeamMembers(f.TeamMembers); err != nil {
		membersOK = false
		errs = append(errs, models.FieldError{Field: "teamMembers", Message: "team members must be a JSON array of names"})
	} else {
		draft.TeamMembers = members
	}

	numbers := []struct {
		field string
		raw   string
		dest  **int64
	}{
		{"singleDayEarnings", f.SingleDayEarnings, &draft.SingleDayEarnings},
		{"quotaAchieved", f.QuotaAchieved, &draft.QuotaAchieved},
		{"quotaReached", f.QuotaReached, &draft.QuotaReached},
		{"quotaFilled", f.QuotaFilled, &draft.QuotaFilled},
	}
	for _, n := range numbers {
		value, err := parseOptionalInt(n.raw)
		if err != nil {
			errs = append(errs, models.FieldError{Field: n.field, Message: "must be a whole number"})
			continue
		}
		*n.dest = value
	}

	if strings.TrimSpace(f.VideoLinks) != "" {
		var links [][]string
		if err := json.Unmarshal([]byte(f.VideoLinks), &links); err != nil {
			errs = append(errs, models.FieldError{Field: "videoLinks", Message: "video links must be a JSON array of arrays"})
		} else {
			draft.VideoLinks = links
		}
	}

	vlogs, stray := attachmentsFromFiles(files, len(draft.ActiveTeamMembers()))
	draft.VlogFiles = vlogs
	if membersOK {
		for _, key := range stray {
			errs = append(errs, models.FieldError{Field: "vlogFiles", Message: fmt.Sprintf("%s does not match an active team member", key)})
		}
	}
	return draft, errs
}

func parseTeamMembers(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var members []string
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, err
	}
	return members, nil
}

func parseOptionalInt(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// attachmentsFromFiles groups uploaded files by player index. Vlog fields
// whose index is malformed or has no active team member are returned as stray.
func attachmentsFromFiles(files map[string][]*multipart.FileHeader, active int) ([][]*models.FileAttachment, []string) {
	var stray []string
	indexes := make([]int, 0, len(files))
	for key := range files {
		if !strings.HasPrefix(key, VlogFieldPrefix) {
			continue
		}
		idx, ok := vlogIndex(key)
		if !ok || idx >= active {
			stray = append(stray, key)
			continue
		}
		indexes = append(indexes, idx)
	}
	sort.Strings(stray)
	if len(indexes) == 0 {
		return nil, stray
	}
	sort.Ints(indexes)

	out := make([][]*models.FileAttachment, indexes[len(indexes)-1]+1)
	for _, idx := range indexes {
		for _, fh := range files[fmt.Sprintf("%s%d", VlogFieldPrefix, idx)] {
			out[idx] = append(out[idx], attachment(fh))
		}
	}
	return out, stray
}

func vlogIndex(key string) (int, bool) {
	raw := strings.TrimPrefix(key, VlogFieldPrefix)
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx >= models.MaxTeamMembers || strconv.Itoa(idx) != raw {
		return 0, false
	}
	return idx, true
}

func attachment(fh *multipart.FileHeader) *models.FileAttachment {
	return &models.FileAttachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// SubmissionOptions lists the choices offered by the record form.
type SubmissionOptions struct {
	Categories     []CategoryOption `json:"categories"`
	Moons          []string         `json:"moons"`
	Versions       []string         `json:"versions"`
	DefaultVersion string           `json:"default_version"`
	MaxTeamMembers int              `json:"max_team_members"`
	RequireVlogs   bool             `json:"require_vlogs"`
}

// CategoryOption describes one selectable category and the fields it needs.
type CategoryOption struct {
	Value           string `json:"value"`
	Label           string `json:"label"`
	ShortName       string `json:"short_name"`
	RequiresMoon    bool   `json:"requires_moon"`
	RequiresEarning bool   `json:"requires_earnings"`
	RequiresQuota   bool   `json:"requires_quota"`
}

// NewSubmissionOptions builds the form options.
func NewSubmissionOptions(defaultVersion string, requireVlogs bool) SubmissionOptions {
	categories := make([]CategoryOption, 0, len(models.Categories))
	for _, c := range models.Categories {
		categories = append(categories, CategoryOption{
			Value:           string(c),
			Label:           c.Label(),
			ShortName:       c.ShortName(),
			RequiresMoon:    c.RequiresMoon(),
			RequiresEarning: c.RequiresEarnings(),
			RequiresQuota:   c.RequiresQuota(),
		})
	}
	return SubmissionOptions{
		Categories:     categories,
		Moons:          models.Moons,
		Versions:       models.Versions,
		DefaultVersion: defaultVersion,
		MaxTeamMembers: models.MaxTeamMembers,
		RequireVlogs:   requireVlogs,
	}
}
