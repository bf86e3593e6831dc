package handler

import (
	"net/http"

	"github.com/cartai/ledger/internal/service"
)

type GameHandler struct {
	svc *service.GameService
}

func NewGameHandler(svc *service.GameService) *GameHandler {
	return &GameHandler{svc: svc}
}

func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Start(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "start game")
		return
	}
	RespondJSON(w, http.StatusCreated, view)
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "get game")
		return
	}
	RespondJSON(w, http.StatusOK, view)
}

// Move handles POST /v1/games/{id}/moves. Illegal placements answer 200 with
// applied=false and the unchanged board.
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		TileIndex *int   `json:"tile_index"`
		Side      string `json:"side"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TileIndex == nil {
		RespondError(w, r, http.StatusBadRequest, "request/missing-tile-index", "tile_index is required")
		return
	}

	view, err := h.svc.Move(r.Context(), actor, id, *req.TileIndex, req.Side)
	if err != nil {
		writeServiceError(w, r, err, "game move")
		return
	}
	RespondJSON(w, http.StatusOK, view)
}

func (h *GameHandler) Pass(w http.ResponseWriter, r *http.Request) {
	actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Pass(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "game pass")
		return
	}
	RespondJSON(w, http.StatusOK, view)
}
