// Package idptest mints identity-provider ID tokens for tests.
package idptest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	Secret   = "idp-test-secret-0123456789-abcdef"
	Issuer   = "https://idp.test/cartai"
	Audience = "cartai-app-test"
)

// Claims describes one token. Zero Expires means one hour from now.
type Claims struct {
	UserID        uuid.UUID
	Email         string
	EmailVerified bool
	Issuer        string
	Audience      string
	Expires       time.Time
}

// Token signs an HS256 ID token with Secret. Empty Issuer and Audience default to the
// package constants.
func Token(t *testing.T, c Claims) string {
	t.Helper()
	if c.Issuer == "" {
		c.Issuer = Issuer
	}
	if c.Audience == "" {
		c.Audience = Audience
	}
	if c.Expires.IsZero() {
		c.Expires = time.Now().Add(time.Hour)
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":            c.UserID.String(),
		"email":          c.Email,
		"email_verified": c.EmailVerified,
		"iss":            c.Issuer,
		"aud":            c.Audience,
		"iat":            time.Now().Unix(),
		"exp":            c.Expires.Unix(),
	}).SignedString([]byte(Secret))
	require.NoError(t, err)
	return raw
}

// Verified is a shorthand for a valid token with a verified email.
func Verified(t *testing.T, id uuid.UUID, email string) string {
	t.Helper()
	return Token(t, Claims{UserID: id, Email: email, EmailVerified: true})
}
