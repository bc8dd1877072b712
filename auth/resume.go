// Package auth issues and validates the signed tokens that let a reloaded
// page reattach to its game session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "imposter-server"

// ResumeClaims is the payload of a resume token. Subject is the session ID.
type ResumeClaims struct {
	jwt.RegisteredClaims
}

// IssueResumeToken signs a token for sessionID valid for ttl.
func IssueResumeToken(secret []byte, sessionID string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("resume secret is empty")
	}
	now := time.Now()
	claims := ResumeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateResumeToken checks signature, issuer and expiry and returns the
// session ID the token was issued for.
func ValidateResumeToken(secret []byte, tokenString string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("resume secret is empty")
	}
	var claims ResumeClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Subject, nil
}
