package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

// Progress checkpoints reported while a record is encoded and sent.
const (
	ProgressStarted      = 10
	ProgressFieldsDone   = 20
	ProgressFilesStarted = 30
	ProgressFilesDone    = 70
	ProgressEncoded      = 80
	ProgressResponded    = 90
	ProgressCompleted    = 100
)

const placeholderContentType = "text/plain"

// ProgressFunc receives a percentage between 0 and 100.
type ProgressFunc func(percent int)

// progressTracker forwards only strictly increasing values.
type progressTracker struct {
	fn   ProgressFunc
	last int
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (p *progressTracker) report(percent int) {
	if percent > ProgressCompleted {
		percent = ProgressCompleted
	}
	if p == nil || percent <= p.last {
		return
	}
	p.last = percent
	if p.fn != nil {
		p.fn(percent)
	}
}

// EncodedSubmission is a ready-to-send multipart body.
type EncodedSubmission struct {
	ContentType string
	Body        *bytes.Buffer
	Files       []string
}

// EncodeSubmission builds the multipart body the record API expects. The
// draft is only read.
func EncodeSubmission(draft models.Draft, progress ProgressFunc) (*EncodedSubmission, error) {
	return encodeSubmission(draft, newProgressTracker(progress))
}

func encodeSubmission(draft models.Draft, tracker *progressTracker) (*EncodedSubmission, error) {
	tracker.report(ProgressStarted)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := []struct {
		name  string
		value string
	}{
		{"discord_joined", draft.DiscordJoined},
		{"discord_handle", draft.DiscordHandle},
		{"category", string(draft.Category)},
		{"version", draft.Version},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, encodeError(err)
		}
	}

	teamMembers := draft.TeamMembers
	if teamMembers == nil {
		teamMembers = []string{}
	}
	if err := writeJSONField(w, "team_members", teamMembers); err != nil {
		return nil, err
	}

	// Only the figures the category uses are sent, so values left over from
	// a previous category selection never reach the API.
	category := draft.Category
	if category.RequiresMoon() && draft.Moon != "" {
		if err := w.WriteField("moon", draft.Moon); err != nil {
			return nil, encodeError(err)
		}
	}
	if category.RequiresEarnings() {
		if err := writeIntField(w, "single_day_earnings", draft.SingleDayEarnings); err != nil {
			return nil, err
		}
	}
	if category.RequiresQuota() {
		for _, f := range []struct {
			name  string
			value *int64
		}{
			{"quota_achieved", draft.QuotaAchieved},
			{"quota_reached", draft.QuotaReached},
			{"quota_filled", draft.QuotaFilled},
		} {
			if err := writeIntField(w, f.name, f.value); err != nil {
				return nil, err
			}
		}
	}
	tracker.report(ProgressFieldsDone)

	videoLinks := draft.VideoLinks
	if videoLinks == nil {
		videoLinks = [][]string{}
	}
	if err := writeJSONField(w, "video_links", videoLinks); err != nil {
		return nil, err
	}
	tracker.report(ProgressFilesStarted)

	active := draft.ActiveTeamMembers()
	total := 0
	for i := range active {
		total += len(draft.FilesFor(i))
	}

	names := make([]string, 0, total+len(active))
	written := 0
	for i := range active {
		player := i + 1
		files := draft.FilesFor(i)
		if len(files) == 0 {
			name := placeholderName(player)
			if err := writeFilePart(w, name, placeholderContentType, nil); err != nil {
				return nil, err
			}
			names = append(names, name)
			continue
		}
		for _, file := range files {
			name := fmt.Sprintf("player%d_%s", player, file.Filename)
			if err := writeFilePart(w, name, file.ContentType, file.Open); err != nil {
				return nil, err
			}
			names = append(names, name)
			written++
			tracker.report(ProgressFilesStarted + (ProgressFilesDone-ProgressFilesStarted)*written/total)
		}
	}
	tracker.report(ProgressFilesDone)

	if err := w.Close(); err != nil {
		return nil, encodeError(err)
	}
	tracker.report(ProgressEncoded)

	return &EncodedSubmission{ContentType: w.FormDataContentType(), Body: body, Files: names}, nil
}

func placeholderName(player int) string {
	return fmt.Sprintf("player%d_empty.log", player)
}

func writeJSONField(w *multipart.Writer, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return encodeError(err)
	}
	if err := w.WriteField(name, string(raw)); err != nil {
		return encodeError(err)
	}
	return nil
}

func writeIntField(w *multipart.Writer, name string, value *int64) error {
	if value == nil {
		return nil
	}
	if err := w.WriteField(name, strconv.FormatInt(*value, 10)); err != nil {
		return encodeError(err)
	}
	return nil
}

func writeFilePart(w *multipart.Writer, filename, contentType string, open func() (io.ReadCloser, error)) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="vlog_files"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return encodeError(err)
	}
	if open == nil {
		return nil
	}
	src, err := open()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read "+filename)
	}
	defer src.Close() //nolint:errcheck
	if _, err := io.Copy(part, src); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read "+filename)
	}
	return nil
}

func encodeError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode submission")
}
