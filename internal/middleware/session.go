package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
	"github.com/noah-isme/coursecraft-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the planning session id.
const ContextSessionKey = "planningSession"

type sessionTokenValidator interface {
	Validate(token string) (*models.SessionClaims, error)
}

// Session protects planning routes by requiring a valid session token.
func Session(tokens sessionTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing session token"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims.SessionID)
		c.Next()
	}
}
