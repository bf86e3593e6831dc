package handler

import (
	"net/http"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/service"
)

type codeRequest struct {
	Code string `json:"code"`
}

type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

func (h *ReferralHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.svc.RedeemCode(r.Context(), actor, req.Code)
	if err != nil {
		writeServiceError(w, r, err, "redeem referral code")
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

func (h *ReferralHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	referrals, err := h.svc.ListReferrals(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list referrals")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"referrals": referrals})
}

type PromoHandler struct {
	svc *service.PromoService
}

func NewPromoHandler(svc *service.PromoService) *PromoHandler {
	return &PromoHandler{svc: svc}
}

func (h *PromoHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.svc.RedeemPromo(r.Context(), actor, req.Code)
	if err != nil {
		writeServiceError(w, r, err, "redeem promo code")
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Code  string `json:"code"`
		Value int64  `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	promo, err := h.svc.CreatePromo(r.Context(), actor, req.Code, domain.Amount(req.Value))
	if err != nil {
		writeServiceError(w, r, err, "create promo code")
		return
	}
	RespondJSON(w, http.StatusCreated, promo)
}

func (h *PromoHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	promos, err := h.svc.ListPromos(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list promo codes")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"promo_codes": promos})
}

type FreeYieldHandler struct {
	svc *service.FreeYieldService
}

func NewFreeYieldHandler(svc *service.FreeYieldService) *FreeYieldHandler {
	return &FreeYieldHandler{svc: svc}
}

func (h *FreeYieldHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	status, err := h.svc.Status(r.Context(), actor, actor.AccountID)
	if err != nil {
		writeServiceError(w, r, err, "free-yield status")
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

func (h *FreeYieldHandler) Activate(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	status, err := h.svc.Activate(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "activate free yield")
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

func (h *FreeYieldHandler) Claim(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	status, err := h.svc.Claim(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "claim free yield")
		return
	}
	RespondJSON(w, http.StatusOK, status)
}
