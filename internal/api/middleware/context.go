package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	sessionKey contextKey = iota
	requestIDKey
)

// Session is the authenticated caller as carried by the bearer token.
type Session struct {
	AccountID uuid.UUID
	Role      string
}

func withSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext reports the caller, if the request passed Authenticate.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
