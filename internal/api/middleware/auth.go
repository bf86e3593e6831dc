package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cartai/ledger/internal/api/problem"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

// clock skew tolerated on nbf/iat
const leeway = 30 * time.Second

var ErrWeakSecret = fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens. The subject is the account id and
// the role is copied from the stored account at login.
type Tokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewTokens(secret, issuer, audience string, ttl time.Duration) (*Tokens, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
		ttl:      ttl,
	}, nil
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue returns a signed token for the account and its expiry.
func (t *Tokens) Issue(accountID uuid.UUID, role string, now time.Time) (string, time.Time, error) {
	expires := now.Add(t.ttl)
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-leeway)),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if t.audience != "" {
		claims.Audience = jwt.ClaimStrings{t.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a raw token into a Session.
func (t *Tokens) Verify(raw string) (Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}

	var claims sessionClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...); err != nil {
		return Session{}, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, fmt.Errorf("%w: subject is not an account id", jwt.ErrTokenInvalidClaims)
	}
	return Session{AccountID: id, Role: claims.Role}, nil
}

// Authenticate requires a valid bearer token and stores the Session in the context.
func (t *Tokens) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			problem.Write(w, r, http.StatusUnauthorized, "auth/authorization-header-required", "Authorization header required")
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			problem.Write(w, r, http.StatusUnauthorized, "auth/invalid-token-format", "Invalid token format")
			return
		}

		session, err := t.Verify(raw)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			problem.Write(w, r, http.StatusUnauthorized, "auth/token-expired", "Token expired")
			return
		case errors.Is(err, jwt.ErrTokenInvalidClaims):
			problem.Write(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "Invalid token claims")
			return
		case err != nil:
			problem.Write(w, r, http.StatusUnauthorized, "auth/invalid-token", "Invalid token")
			return
		}
		reportSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

// RequireRole rejects sessions whose role differs from role. Services check again.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := SessionFromContext(r.Context()); !ok || s.Role != role {
				problem.Write(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
