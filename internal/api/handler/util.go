package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cartai/ledger/internal/api/middleware"
	"github.com/cartai/ledger/internal/api/problem"
	"github.com/cartai/ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an RFC 7807 problem for slug.
func RespondError(w http.ResponseWriter, r *http.Request, status int, slug, message string) {
	problem.Write(w, r, status, slug, message)
}

// withActor resolves the authenticated caller or writes a 401 and reports false.
func withActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return service.Actor{}, false
	}
	return service.Actor{AccountID: s.AccountID, Role: s.Role}, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-"+name, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// errorSlugs names the problem type of each specific service error.
var errorSlugs = []struct {
	err  error
	slug string
}{
	{service.ErrInvalidCode, "code/invalid"},
	{service.ErrAlreadyReferred, "referral/already-referred"},
	{service.ErrCodeNotFound, "referral/code-not-found"},
	{service.ErrPromoNotFound, "promo/not-found"},
	{service.ErrPromoAlreadyUsed, "promo/already-used"},
	{service.ErrPromoExists, "promo/exists"},
	{service.ErrBelowMinimum, "withdrawal/below-minimum"},
	{service.ErrInsufficientFunds, "withdrawal/insufficient-funds"},
	{service.ErrDestinationMissing, "withdrawal/destination-missing"},
	{service.ErrDestinationMismatch, "withdrawal/destination-mismatch"},
	{service.ErrUnknownMethod, "withdrawal/unknown-method"},
	{service.ErrWithdrawalNotFound, "withdrawal/not-found"},
	{service.ErrPaymentNotFound, "payment/not-found"},
	{service.ErrCatalogNotFound, "catalog/not-found"},
	{service.ErrEmptyReference, "payment/reference-required"},
	{service.ErrFreeYieldInactive, "free-yield/inactive"},
	{service.ErrFreeYieldExpired, "free-yield/expired"},
	{service.ErrAlreadyClaimedToday, "free-yield/already-claimed"},
	{service.ErrAccountNotFound, "account/not-found"},
	{service.ErrAccountExists, "account/exists"},
	{service.ErrInvalidBucket, "account/invalid-bucket"},
	{service.ErrInvalidAmount, "request/invalid-amount"},
	{service.ErrNegativeBalance, "account/negative-balance"},
	{service.ErrAdminRequired, "auth/insufficient-permissions"},
	{service.ErrNotOwner, "auth/not-owner"},
	{service.ErrInvalidTransition, "state/invalid-transition"},
	{service.ErrGameNotFound, "game/not-found"},
	{service.ErrGameOver, "game/over"},
	{service.ErrMustPlay, "game/must-play"},
	{service.ErrInvalidSide, "game/invalid-side"},
}

// writeServiceError maps a service error to an RFC 7807 response. Anything that does
// not wrap a known kind is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := 0
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	}
	if status != 0 {
		slug := "request/invalid"
		for _, e := range errorSlugs {
			if errors.Is(err, e.err) {
				slug = e.slug
				break
			}
		}
		RespondError(w, r, status, slug, err.Error())
		return
	}

	if status, pType, msg, ok := mapDBError(err); ok {
		RespondError(w, r, status, pType, msg)
		return
	}
	zap.L().Error(op+" failed", zap.Error(err), zap.String("request_id", middleware.RequestIDFromContext(r.Context())))
	RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
