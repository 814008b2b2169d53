package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

func TestSessionTokenIssueAndValidate(t *testing.T) {
	svc := NewSessionTokenService("secret", time.Hour)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token, expiresAt, err := svc.Issue("session-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "coursecraft-api", claims.Issuer)
}

func TestSessionTokenRejectsExpired(t *testing.T) {
	svc := NewSessionTokenService("secret", time.Minute)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token, _, err := svc.Issue("session-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSessionTokenRejectsForeignSignature(t *testing.T) {
	token, _, err := NewSessionTokenService("other", time.Hour).Issue("session-1")
	require.NoError(t, err)

	_, err = NewSessionTokenService("secret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSessionTokenRejectsMismatchedSubject(t *testing.T) {
	svc := NewSessionTokenService("secret", time.Hour)
	claims := &models.SessionClaims{
		SessionID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionTokenIssuer,
			Subject:   "session-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
