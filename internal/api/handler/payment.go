package handler

import (
	"net/http"

	"github.com/cartai/ledger/internal/service"
)

// CatalogHandler serves the package catalog.
type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list catalog")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"packages": items})
}

// PaymentHandler covers both the buyer side and the admin review queue.
type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Create handles POST /v1/payments and returns 201 with the pending payment.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var req struct {
		CatalogID string `json:"catalog_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	payment, err := h.svc.CreatePaymentIntent(r.Context(), actor, req.CatalogID)
	if err != nil {
		writeServiceError(w, r, err, "create payment")
		return
	}
	RespondJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.ListMine(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list payments")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *PaymentHandler) SubmitReference(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Reference string `json:"reference"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	payment, err := h.svc.SubmitReference(r.Context(), actor, paymentID, req.Reference)
	if err != nil {
		writeServiceError(w, r, err, "submit payment reference")
		return
	}
	RespondJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.ListPending(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list pending payments")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.svc.Approve(r.Context(), actor, paymentID)
	if err != nil {
		writeServiceError(w, r, err, "approve payment")
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	payment, err := h.svc.Reject(r.Context(), actor, paymentID, req.Reason)
	if err != nil {
		writeServiceError(w, r, err, "reject payment")
		return
	}
	RespondJSON(w, http.StatusOK, payment)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}
