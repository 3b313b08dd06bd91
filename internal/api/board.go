package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/agency-pulse/internal/kanban"
	"github.com/ignite/agency-pulse/internal/pkg/httputil"
)

// Production board handlers. All routes live under
// /api/clients/{clientID}/board.

func (h *Handlers) boardEnabled(w http.ResponseWriter) bool {
	if h.kanban == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "production board is not enabled")
		return false
	}
	return true
}

func (h *Handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	board, err := h.kanban.GetBoard(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, board)
}

func (h *Handlers) CreateBoardCard(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	var req kanban.CreateCardRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		httputil.BadRequest(w, "title is required")
		return
	}
	card, err := h.kanban.CreateCard(r.Context(), chi.URLParam(r, "clientID"), req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, card)
}

func (h *Handlers) UpdateBoardCard(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	var req kanban.UpdateCardRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	card, err := h.kanban.UpdateCard(r.Context(), chi.URLParam(r, "clientID"), chi.URLParam(r, "cardID"), req)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.OK(w, card)
}

func (h *Handlers) MoveBoardCard(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	var req kanban.MoveCardRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	req.CardID = chi.URLParam(r, "cardID")
	if err := h.kanban.MoveCard(r.Context(), chi.URLParam(r, "clientID"), req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) DeleteBoardCard(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	if err := h.kanban.DeleteCard(r.Context(), chi.URLParam(r, "clientID"), chi.URLParam(r, "cardID")); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) GetBoardDueTasks(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	due, err := h.kanban.GetDueTasks(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, due)
}

func (h *Handlers) GetBoardVelocity(w http.ResponseWriter, r *http.Request) {
	if !h.boardEnabled(w) {
		return
	}
	report, err := h.kanban.VelocityStats(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}
