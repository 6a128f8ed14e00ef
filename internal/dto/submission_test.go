package dto

import (
	"bytes"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hqhq-web/internal/models"
)

func buildForm(t *testing.T, values map[string]string, files map[string][]string) *multipart.Form {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("content of " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form
}

func TestSubmissionFormToDraft(t *testing.T) {
	form := buildForm(t, map[string]string{
		"discord_joined": "yes",
		"discord_handle": "crew",
		"team_members":   `["A","","B"]`,
		"category":       "single_moon_hq",
		"moon":           "Titan",
		"version":        "v69",
		"quota_achieved": " 12 ",
		"quota_reached":  "9000",
		"quota_filled":   "8900",
		"video_links":    `[["https://youtu.be/a"],[""]]`,
	}, map[string][]string{
		"vlog_files_1": {"b.log"},
		"vlog_files_0": {"a1.log", "a2.log"},
	})

	draft, errs := FormFromMultipart(form).ToDraft(form.File)
	require.Empty(t, errs)
	assert.Equal(t, []string{"A", "", "B"}, draft.TeamMembers)
	assert.Equal(t, models.CategorySingleMoonHQ, draft.Category)
	require.NotNil(t, draft.QuotaAchieved)
	assert.Equal(t, int64(12), *draft.QuotaAchieved)
	assert.Nil(t, draft.SingleDayEarnings)
	assert.Equal(t, [][]string{{"https://youtu.be/a"}, {""}}, draft.VideoLinks)

	require.Len(t, draft.VlogFiles, 2)
	require.Len(t, draft.VlogFiles[0], 2)
	assert.Equal(t, "b.log", draft.VlogFiles[1][0].Filename)

	rc, err := draft.VlogFiles[1][0].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "content of b.log", string(content))
}

func TestSubmissionFormRejectsVlogsWithoutActiveMember(t *testing.T) {
	form := buildForm(t, map[string]string{
		"team_members": `["A","","B"]`,
		"category":     "high_quota",
	}, map[string][]string{
		"vlog_files_0":  {"a.log"},
		"vlog_files_2":  {"extra.log"},
		"vlog_files_9":  {"far.log"},
		"vlog_files_01": {"padded.log"},
	})

	draft, errs := FormFromMultipart(form).ToDraft(form.File)
	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Equal(t, "vlogFiles", e.Field)
	}
	assert.Contains(t, errs[0].Message, "vlog_files_01")
	assert.Contains(t, errs[1].Message, "vlog_files_2")
	assert.Contains(t, errs[2].Message, "vlog_files_9")

	require.Len(t, draft.VlogFiles, 1)
	assert.Equal(t, "a.log", draft.VlogFiles[0][0].Filename)
}

func TestSubmissionFormReportsUnparseableInput(t *testing.T) {
	form := SubmissionForm{
		TeamMembers:   "A, B",
		QuotaAchieved: "twelve",
		QuotaFilled:   "1.5",
		VideoLinks:    "{",
	}
	_, errs := form.ToDraft(nil)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"teamMembers", "quotaAchieved", "quotaFilled", "videoLinks"}, fields)
}

func TestNewSubmissionOptions(t *testing.T) {
	opts := NewSubmissionOptions("v73", true)
	require.Len(t, opts.Categories, 3)
	assert.Equal(t, "HQ", opts.Categories[0].ShortName)
	assert.True(t, opts.Categories[1].RequiresEarning)
	assert.True(t, opts.Categories[2].RequiresMoon)
	assert.Equal(t, "v73", opts.DefaultVersion)
	assert.True(t, opts.RequireVlogs)
	assert.Contains(t, opts.Moons, "Titan")
}
