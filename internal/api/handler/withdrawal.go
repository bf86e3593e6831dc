package handler

import (
	"net/http"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/service"
)

type WithdrawalHandler struct {
	svc *service.WithdrawalService
}

func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

// BindDestination handles PUT /v1/me/withdrawal-destination.
func (h *WithdrawalHandler) BindDestination(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Method       string `json:"method"`
		Account      string `json:"account"`
		Confirmation string `json:"confirmation"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	dest, err := h.svc.BindDestination(r.Context(), actor, service.BindDestinationRequest{
		Method:       req.Method,
		Account:      req.Account,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		writeServiceError(w, r, err, "bind withdrawal destination")
		return
	}
	RespondJSON(w, http.StatusOK, dest)
}

// Request handles POST /v1/withdrawals. Earned balance is debited immediately and the
// request waits in the admin queue, so the response is 202.
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	withdrawal, err := h.svc.RequestWithdrawal(r.Context(), actor, domain.Amount(req.Amount))
	if err != nil {
		writeServiceError(w, r, err, "request withdrawal")
		return
	}
	RespondJSON(w, http.StatusAccepted, withdrawal)
}

func (h *WithdrawalHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	items, err := h.svc.History(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "withdrawal history")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"withdrawals": items})
}

func (h *WithdrawalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListPending(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list pending withdrawals")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"withdrawals": items})
}

func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	withdrawal, err := h.svc.Approve(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "approve withdrawal")
		return
	}
	RespondJSON(w, http.StatusOK, withdrawal)
}

func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	withdrawal, err := h.svc.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		writeServiceError(w, r, err, "reject withdrawal")
		return
	}
	RespondJSON(w, http.StatusOK, withdrawal)
}
