package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/cartai/ledger/internal/api/problem"
	"github.com/cartai/ledger/internal/idempotency"
	"github.com/cartai/ledger/internal/observability"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayHeader         = "X-Idempotent-Replay"

	maxKeyLength = 128
)

// Idempotency makes money-moving routes safe to retry. The first response stored
// under a key is replayed for every retry with the same body; a retry with a
// different body is a conflict. Keys are scoped to the calling account.
type Idempotency struct {
	store  *idempotency.Store
	logger *zap.Logger
}

func NewIdempotency(store *idempotency.Store, logger *zap.Logger) *Idempotency {
	return &Idempotency{store: store, logger: logger}
}

// Require rejects requests without an Idempotency-Key.
func (m *Idempotency) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyKeyHeader)
		switch {
		case key == "":
			observability.IncrementIdempotencyEvent("missing_key")
			problem.Write(w, r, http.StatusBadRequest, "idempotency/missing-key", "Idempotency-Key header is required")
			return
		case len(key) > maxKeyLength:
			problem.Write(w, r, http.StatusBadRequest, "idempotency/invalid-key", "Idempotency-Key is too long")
			return
		}
		if s, ok := SessionFromContext(r.Context()); ok {
			key = s.AccountID.String() + ":" + key
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		hash := requestHash(r.Method, r.URL.Path, body)
		if m.replay(w, r, key, hash) {
			return
		}
		m.execute(w, r, next, key, hash)
	})
}

// replay answers from a stored response and reports whether it wrote anything.
func (m *Idempotency) replay(w http.ResponseWriter, r *http.Request, key, hash string) bool {
	rec, err := m.store.Lookup(r.Context(), key, hash)
	switch {
	case err == nil:
		observability.IncrementIdempotencyEvent("replay")
		writeRecord(w, rec)
		return true
	case errors.Is(err, idempotency.ErrHashMismatch):
		observability.IncrementIdempotencyEvent("hash_mismatch")
		problem.Write(w, r, http.StatusConflict, "idempotency/key-conflict", "Idempotency-Key was used with a different request")
		return true
	case errors.Is(err, idempotency.ErrInProgress):
		m.awaitFirst(w, r, key, hash, "replay_after_wait")
		return true
	case !errors.Is(err, idempotency.ErrNotFound):
		observability.IncrementIdempotencyEvent("lookup_error")
		m.logger.Warn("idempotency lookup failed", zap.Error(err))
	}
	return false
}

// execute reserves the key, runs the handler and stores what it wrote.
func (m *Idempotency) execute(w http.ResponseWriter, r *http.Request, next http.Handler, key, hash string) {
	reserved, err := m.store.Reserve(r.Context(), key, hash, r.Method, r.URL.Path)
	if err != nil {
		observability.IncrementIdempotencyEvent("reserve_error")
		m.logger.Error("idempotency reserve failed", zap.Error(err))
		problem.Write(w, r, http.StatusServiceUnavailable, "idempotency/unavailable", "idempotency store unavailable")
		return
	}
	if !reserved {
		m.awaitFirst(w, r, key, hash, "replay_after_reserve")
		return
	}
	observability.IncrementIdempotencyEvent("reserved")

	rec := newRecorder(w, true)
	next.ServeHTTP(rec, r)

	contentType := rec.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	if _, err := m.store.Finalize(r.Context(), key, hash, rec.Status(), rec.body.Bytes(), contentType); err != nil {
		observability.IncrementIdempotencyEvent("finalize_error")
		m.logger.Warn("idempotency finalize failed", zap.Error(err), zap.String("key", key))
		return
	}
	observability.IncrementIdempotencyEvent("finalized")
}

// awaitFirst blocks until the request holding the key finishes, then replays it.
func (m *Idempotency) awaitFirst(w http.ResponseWriter, r *http.Request, key, hash, event string) {
	rec, err := m.store.WaitForCompletion(r.Context(), key, hash)
	if err == nil {
		observability.IncrementIdempotencyEvent(event)
		writeRecord(w, rec)
		return
	}
	observability.IncrementIdempotencyEvent("in_progress_conflict")
	m.logger.Warn("idempotency wait failed", zap.Error(err))
	problem.Write(w, r, http.StatusConflict, "idempotency/in-progress", "a request with this Idempotency-Key is still running")
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'|'})
	h.Write([]byte(path))
	h.Write([]byte{'|'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func writeRecord(w http.ResponseWriter, rec *idempotency.Record) {
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set(ReplayHeader, rec.ServedBy)
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}
