package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are carried by a planning session token. The subject is the session id.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
