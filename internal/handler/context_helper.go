package handler

import (
	"errors"
	"mime"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/service"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
	"github.com/noah-isme/hqhq-web/pkg/response"
)

func sessionIDFromContext(c *gin.Context) (string, bool) {
	claims := middleware.SessionClaims(c)
	if claims == nil || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}

// attachment builds a Content-Disposition value; non-ASCII names use the
// RFC 2231 filename* form.
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

// respondError writes err, adding ordered field errors and the focus field
// to meta when err carries draft validation details.
func respondError(c *gin.Context, err error) {
	meta := map[string]interface{}{}
	for k, v := range middleware.ExtractMeta(c) {
		meta[k] = v
	}

	var verr *service.DraftValidationError
	if errors.As(err, &verr) {
		meta["fields"] = verr.Fields
		meta["focus"] = verr.Focus()
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, verr.Error()), meta)
		return
	}
	if len(meta) == 0 {
		meta = nil
	}
	response.Error(c, err, meta)
}
