package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

type tokenStub struct {
	sessionID string
	seen      string
}

func (s *tokenStub) Validate(token string) (*models.SessionClaims, error) {
	s.seen = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	return &models.SessionClaims{SessionID: s.sessionID}, nil
}

func newSessionRouter(tokens *tokenStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/session", Session(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSessionKey))
	})
	return router
}

func TestSessionMiddlewareAcceptsBearerToken(t *testing.T) {
	tokens := &tokenStub{sessionID: "session-1"}
	router := newSessionRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "bearer good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-1", w.Body.String())
	assert.Equal(t, "good", tokens.seen)
}

func TestSessionMiddlewareRejects(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic good",
		"bad token":      "Bearer forged",
	}
	for name, header := range cases {
		header := header
		t.Run(name, func(t *testing.T) {
			router := newSessionRouter(&tokenStub{sessionID: "session-1"})
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}
}
