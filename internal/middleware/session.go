package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hqhq-web/internal/models"
	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
	"github.com/noah-isme/hqhq-web/pkg/response"
)

// ContextSessionKey is the gin context key storing the session claims.
const ContextSessionKey = "adminSession"

// SessionValidator verifies session handles.
type SessionValidator interface {
	ValidateHandle(handle string) (*models.SessionClaims, error)
}

// Session protects admin routes by requiring a valid session handle.
func Session(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle, err := BearerHandle(c)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := validator.ValidateHandle(handle)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims)
		c.Next()
	}
}

// BearerHandle extracts the session handle from the Authorization header.
func BearerHandle(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// SessionClaims returns the claims stored by Session.
func SessionClaims(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
