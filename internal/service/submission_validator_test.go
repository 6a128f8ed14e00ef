package service

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func textFile(name, body string) *models.FileAttachment {
	return &models.FileAttachment{
		Filename:    name,
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func validHQDraft() models.Draft {
	return models.Draft{
		DiscordJoined: models.DiscordJoinedYes,
		DiscordHandle: "crew#1",
		TeamMembers:   []string{"A", "", "", ""},
		Category:      models.CategoryHighQuota,
		Version:       "v73",
		QuotaAchieved: int64Ptr(20),
		QuotaReached:  int64Ptr(12000),
		QuotaFilled:   int64Ptr(11500),
		VideoLinks:    [][]string{{"https://youtu.be/x"}},
	}
}

func fieldNames(errs []models.FieldError) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func TestValidateDraftAcceptsCompleteHighQuota(t *testing.T) {
	assert.Empty(t, ValidateDraft(validHQDraft(), SubmissionRules{}))
}

func TestValidateDraftEmptyReportsInDeclarationOrder(t *testing.T) {
	errs := ValidateDraft(models.Draft{}, SubmissionRules{})
	assert.Equal(t, []string{FieldDiscordJoined, FieldDiscordHandle, FieldTeamMembers, FieldCategory, FieldVersion}, fieldNames(errs))
}

func TestValidateDraftRequiredFieldsFollowCategory(t *testing.T) {
	cases := []struct {
		name     string
		category models.Category
		want     []string
	}{
		{"high quota", models.CategoryHighQuota, []string{FieldQuotaAchieved, FieldQuotaReached, FieldQuotaFilled}},
		{"single day clear", models.CategorySingleDayClear, []string{FieldMoon, FieldSingleDayEarnings}},
		{"single moon hq", models.CategorySingleMoonHQ, []string{FieldMoon, FieldQuotaAchieved, FieldQuotaReached, FieldQuotaFilled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := models.Draft{
				DiscordJoined: models.DiscordJoinedNo,
				DiscordHandle: "h",
				TeamMembers:   []string{"A"},
				Category:      tc.category,
				Version:       "v69",
			}
			assert.Equal(t, tc.want, fieldNames(ValidateDraft(draft, SubmissionRules{})))
		})
	}
}

func TestValidateDraftCategorySwitchDropsStaleErrors(t *testing.T) {
	draft := validHQDraft()
	draft.QuotaFilled = nil
	require.Equal(t, []string{FieldQuotaFilled}, fieldNames(ValidateDraft(draft, SubmissionRules{})))

	draft.Category = models.CategorySingleDayClear
	draft.Moon = "Titan"
	draft.SingleDayEarnings = int64Ptr(3000)
	assert.Empty(t, ValidateDraft(draft, SubmissionRules{}))
}

func TestValidateDraftRejectsUnknownEnums(t *testing.T) {
	draft := validHQDraft()
	draft.DiscordJoined = "maybe"
	draft.Version = "v99"
	draft.Category = models.CategorySingleMoonHQ
	draft.Moon = "Gordion"

	errs := ValidateDraft(draft, SubmissionRules{})
	assert.Equal(t, []string{FieldDiscordJoined, FieldMoon, FieldVersion}, fieldNames(errs))
}

func TestValidateDraftWhitespaceMembersAreInactive(t *testing.T) {
	draft := validHQDraft()
	draft.TeamMembers = []string{" ", "\t", "", ""}
	assert.Equal(t, []string{FieldTeamMembers}, fieldNames(ValidateDraft(draft, SubmissionRules{})))
}

func TestValidateDraftTooManyMembers(t *testing.T) {
	draft := validHQDraft()
	draft.TeamMembers = []string{"A", "B", "C", "D", "E"}
	assert.Equal(t, []string{FieldTeamMembers}, fieldNames(ValidateDraft(draft, SubmissionRules{})))
}

func TestValidateDraftNoRangeChecks(t *testing.T) {
	draft := validHQDraft()
	draft.QuotaAchieved = int64Ptr(-5)
	draft.QuotaReached = int64Ptr(0)
	assert.Empty(t, ValidateDraft(draft, SubmissionRules{}))
}

func TestValidateDraftStrictVlogs(t *testing.T) {
	draft := validHQDraft()
	draft.TeamMembers = []string{"A", "B"}
	draft.VlogFiles = [][]*models.FileAttachment{{textFile("a.log", "x")}}

	assert.Empty(t, ValidateDraft(draft, SubmissionRules{RequireVlogs: false}))
	assert.Equal(t, []string{FieldVlogFiles}, fieldNames(ValidateDraft(draft, SubmissionRules{RequireVlogs: true})))

	draft.VlogFiles = append(draft.VlogFiles, []*models.FileAttachment{textFile("b.log", "y")})
	assert.Empty(t, ValidateDraft(draft, SubmissionRules{RequireVlogs: true}))
}

func TestValidateDraftIsIdempotent(t *testing.T) {
	draft := models.Draft{Category: models.CategorySingleDayClear}
	first := ValidateDraft(draft, SubmissionRules{})
	second := ValidateDraft(draft, SubmissionRules{})
	assert.Equal(t, first, second)
}

func TestDraftValidationErrorFocusAndUnwrap(t *testing.T) {
	err := &DraftValidationError{Fields: ValidateDraft(models.Draft{DiscordJoined: "yes"}, SubmissionRules{})}
	assert.Equal(t, FieldDiscordHandle, err.Focus())
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), FieldDiscordHandle)
}

func TestSortFieldErrors(t *testing.T) {
	errs := []models.FieldError{
		{Field: FieldVersion},
		{Field: "reason"},
		{Field: FieldDiscordHandle},
		{Field: FieldMoon},
	}
	SortFieldErrors(errs)
	assert.Equal(t, []string{FieldDiscordHandle, FieldMoon, FieldVersion, "reason"}, fieldNames(errs))
}
