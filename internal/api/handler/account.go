package handler

import (
	"net/http"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	accountID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.svc.Summary(r.Context(), actor, accountID)
	if err != nil {
		writeServiceError(w, r, err, "account summary")
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	accountID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.svc.Statement(r.Context(), actor, accountID, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		writeServiceError(w, r, err, "account statement")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// AdjustBalance handles POST /v1/admin/accounts/{id}/adjustments.
func (h *AccountHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	accountID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Bucket string `json:"bucket"`
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.svc.AdjustBalance(r.Context(), actor, service.AdjustBalanceRequest{
		AccountID: accountID,
		Bucket:    req.Bucket,
		Delta:     domain.Amount(req.Delta),
		Reason:    req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err, "adjust balance")
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

// SetRole handles PUT /v1/admin/accounts/{id}/role.
func (h *AccountHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	accountID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.svc.SetRole(r.Context(), actor, accountID, req.Role)
	if err != nil {
		writeServiceError(w, r, err, "set role")
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	accounts, err := h.svc.ListAccounts(r.Context(), actor, int32(queryInt(r, "limit")), int32(queryInt(r, "offset")))
	if err != nil {
		writeServiceError(w, r, err, "list accounts")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
