package service

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

// Draft field names, in the order the form declares them. Validation
// errors are reported in this order so the first one is the focus target.
const (
	FieldDiscordJoined     = "discordJoined"
	FieldDiscordHandle     = "discordHandle"
	FieldTeamMembers       = "teamMembers"
	FieldCategory          = "category"
	FieldMoon              = "moon"
	FieldVersion           = "version"
	FieldSingleDayEarnings = "singleDayEarnings"
	FieldQuotaAchieved     = "quotaAchieved"
	FieldQuotaReached      = "quotaReached"
	FieldQuotaFilled       = "quotaFilled"
	FieldVideoLinks        = "videoLinks"
	FieldVlogFiles         = "vlogFiles"
)

var draftFieldOrder = []string{
	FieldDiscordJoined,
	FieldDiscordHandle,
	FieldTeamMembers,
	FieldCategory,
	FieldMoon,
	FieldVersion,
	FieldSingleDayEarnings,
	FieldQuotaAchieved,
	FieldQuotaReached,
	FieldQuotaFilled,
	FieldVideoLinks,
	FieldVlogFiles,
}

var (
	enumValidate = validator.New()

	discordJoinedTag = "oneof=" + models.DiscordJoinedYes + " " + models.DiscordJoinedNo
	moonTag          = "oneof=" + strings.Join(models.Moons, " ")
	versionTag       = "oneof=" + strings.Join(models.Versions, " ")
)

// SubmissionRules selects the revision dependent checks.
type SubmissionRules struct {
	// RequireVlogs demands at least one log file per active team member.
	// When false, missing logs are replaced by placeholders on encoding.
	RequireVlogs bool
}

// DraftValidationError carries the ordered field errors of a rejected draft.
type DraftValidationError struct {
	Fields []models.FieldError
}

func (e *DraftValidationError) Error() string {
	if len(e.Fields) == 0 {
		return appErrors.ErrValidation.Message
	}
	return e.Fields[0].Field + ": " + e.Fields[0].Message
}

// Unwrap exposes the generic validation error for response mapping.
func (e *DraftValidationError) Unwrap() error {
	return appErrors.ErrValidation
}

// Focus names the field the form should move to.
func (e *DraftValidationError) Focus() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Field
}

// ValidateDraft is a pure function of the draft: the required set is
// derived from the category on every call, so no error for a field that
// the current category does not use can survive a category change.
func ValidateDraft(draft models.Draft, rules SubmissionRules) []models.FieldError {
	errs := make([]models.FieldError, 0)
	add := func(field, message string) {
		errs = append(errs, models.FieldError{Field: field, Message: message})
	}

	switch {
	case draft.DiscordJoined == "":
		add(FieldDiscordJoined, "select whether you joined the Discord server")
	case enumValidate.Var(draft.DiscordJoined, discordJoinedTag) != nil:
		add(FieldDiscordJoined, "must be yes or no")
	}

	if strings.TrimSpace(draft.DiscordHandle) == "" {
		add(FieldDiscordHandle, "enter your Discord handle")
	}

	active := draft.ActiveTeamMembers()
	switch {
	case len(draft.TeamMembers) > models.MaxTeamMembers:
		add(FieldTeamMembers, "at most 4 team members can be listed")
	case len(active) == 0:
		add(FieldTeamMembers, "enter at least one team member nickname")
	}

	category := draft.Category
	switch {
	case category == "":
		add(FieldCategory, "select a category")
	case !category.Valid():
		add(FieldCategory, "unknown category")
	}

	if category.RequiresMoon() {
		switch {
		case draft.Moon == "":
			add(FieldMoon, "select a moon")
		case enumValidate.Var(draft.Moon, moonTag) != nil:
			add(FieldMoon, "unknown moon")
		}
	}

	switch {
	case draft.Version == "":
		add(FieldVersion, "select a version")
	case enumValidate.Var(draft.Version, versionTag) != nil:
		add(FieldVersion, "unknown version")
	}

	if category.RequiresEarnings() && draft.SingleDayEarnings == nil {
		add(FieldSingleDayEarnings, "enter the single day earnings")
	}

	if category.RequiresQuota() {
		if draft.QuotaAchieved == nil {
			add(FieldQuotaAchieved, "enter the number of quotas achieved")
		}
		if draft.QuotaReached == nil {
			add(FieldQuotaReached, "enter the quota reached")
		}
		if draft.QuotaFilled == nil {
			add(FieldQuotaFilled, "enter the quota filled")
		}
	}

	if rules.RequireVlogs {
		for i := range active {
			if len(draft.FilesFor(i)) == 0 {
				add(FieldVlogFiles, "attach a log file for every team member")
				break
			}
		}
	}

	return errs
}

// SortFieldErrors orders errors by form declaration order, keeping the
// relative order of errors on the same field.
func SortFieldErrors(errs []models.FieldError) {
	rank := make(map[string]int, len(draftFieldOrder))
	for i, field := range draftFieldOrder {
		rank[field] = i
	}
	sort.SliceStable(errs, func(i, j int) bool {
		ri, ok := rank[errs[i].Field]
		if !ok {
			ri = len(draftFieldOrder)
		}
		rj, ok := rank[errs[j].Field]
		if !ok {
			rj = len(draftFieldOrder)
		}
		return ri < rj
	})
}
