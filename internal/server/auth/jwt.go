// Package auth signs and verifies the session cookie envelope and manages
// the cookie itself.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims wraps the opaque session token stored server-side.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// SignSession returns an HS256 JWT carrying the session token.
func SignSession(sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		SessionID: sessionID,
	})

	return token.SignedString(secretKey)
}

// ParseSession verifies the envelope and returns the session token inside it.
// Expired envelopes yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func ParseSession(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.SessionID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.SessionID, nil
}
