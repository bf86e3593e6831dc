package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cartai/ledger/internal/api/middleware"
	"github.com/cartai/ledger/internal/identity"
	"github.com/cartai/ledger/internal/service"
	"go.uber.org/zap"
)

// IdentityVerifier checks identity-provider ID tokens.
type IdentityVerifier interface {
	Verify(raw string) (identity.Identity, error)
}

// AuthHandler turns identity-provider ID tokens into accounts and session tokens.
// User id and email are always read from the verified token, never from the body.
type AuthHandler struct {
	accounts *service.AccountService
	verifier IdentityVerifier
	tokens   *middleware.Tokens
}

func NewAuthHandler(accounts *service.AccountService, verifier IdentityVerifier, tokens *middleware.Tokens) *AuthHandler {
	return &AuthHandler{accounts: accounts, verifier: verifier, tokens: tokens}
}

// Register creates the account of the identity in id_token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken     string `json:"id_token"`
		DisplayName string `json:"display_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	who, ok := h.verify(w, r, req.IDToken)
	if !ok {
		return
	}

	account, err := h.accounts.Register(r.Context(), service.RegisterRequest{
		UserID:      who.UserID,
		Email:       who.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeServiceError(w, r, err, "register account")
		return
	}
	RespondJSON(w, http.StatusCreated, account)
}

// Login exchanges an ID token for a session token carrying the stored role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	who, ok := h.verify(w, r, req.IDToken)
	if !ok {
		return
	}

	account, err := h.accounts.Login(r.Context(), who.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			RespondError(w, r, http.StatusNotFound, "account/not-found", "account not found")
			return
		}
		writeServiceError(w, r, err, "login")
		return
	}

	token, expires, err := h.tokens.Issue(account.ID, account.Role, time.Now())
	if err != nil {
		zap.L().Error("issue session token failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"role":       account.Role,
		"expires_at": expires.UTC(),
		"expires_in": int64(h.tokens.TTL().Seconds()),
	})
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request, raw string) (identity.Identity, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		RespondError(w, r, http.StatusBadRequest, "auth/id-token-required", "id_token is required")
		return identity.Identity{}, false
	}
	who, err := h.verifier.Verify(raw)
	switch {
	case err == nil:
		return who, true
	case errors.Is(err, identity.ErrExpiredToken):
		RespondError(w, r, http.StatusUnauthorized, "auth/id-token-expired", "identity token has expired")
	case errors.Is(err, identity.ErrEmailUnverified):
		RespondError(w, r, http.StatusForbidden, "auth/email-unverified", "identity email is not verified")
	default:
		zap.L().Debug("identity token rejected", zap.Error(err))
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-id-token", "identity token is invalid")
	}
	return identity.Identity{}, false
}
