// Package identity verifies ID tokens minted by the external identity provider. The
// ledger never trusts a user id or email from a request body; both come from a verified
// token's claims.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const leeway = 30 * time.Second

var (
	ErrInvalidToken    = errors.New("invalid identity token")
	ErrExpiredToken    = errors.New("identity token expired")
	ErrEmailUnverified = errors.New("identity email not verified")
)

// Identity is the verified caller as asserted by the identity provider.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Config selects the provider key. Exactly one of Secret (HS256) or PublicKeyPEM
// (RS256) must be set.
type Config struct {
	Issuer       string
	Audience     string
	Secret       string
	PublicKeyPEM string
}

type Verifier struct {
	issuer   string
	audience string
	method   string
	key      any
}

func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
	}
	if v.issuer == "" || v.audience == "" {
		return nil, errors.New("identity issuer and audience are required")
	}

	switch {
	case cfg.Secret != "" && cfg.PublicKeyPEM != "":
		return nil, errors.New("identity secret and public key are mutually exclusive")
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity public key: %w", err)
		}
		v.method, v.key = jwt.SigningMethodRS256.Alg(), key
	case len(cfg.Secret) >= 32:
		v.method, v.key = jwt.SigningMethodHS256.Alg(), []byte(cfg.Secret)
	default:
		return nil, errors.New("identity secret (at least 32 characters) or public key is required")
	}
	return v, nil
}

// Verify checks signature, issuer, audience and expiry, and requires a UUID subject
// and a verified email.
func (v *Verifier) Verify(raw string) (Identity, error) {
	var claims idClaims
	token, err := jwt.ParseWithClaims(raw, &claims, v.keyFunc,
		jwt.WithValidMethods([]string{v.method}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrExpiredToken
	case err != nil || !token.Valid:
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return Identity{}, fmt.Errorf("%w: email claim missing", ErrInvalidToken)
	}
	if !claims.EmailVerified {
		return Identity{}, ErrEmailUnverified
	}
	return Identity{UserID: uid, Email: email}, nil
}

func (v *Verifier) keyFunc(*jwt.Token) (any, error) { return v.key, nil }
