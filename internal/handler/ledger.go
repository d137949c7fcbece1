package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/service"
)

type LedgerHandler struct {
	ledger   *service.LedgerService
	features config.Features
	logger   *slog.Logger
}

func NewLedgerHandler(ls *service.LedgerService, features config.Features, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ls, features: features, logger: logger}
}

func (h *LedgerHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req adjustmentRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	amount := decimal.RequireFromString(req.Amount.String())
	adj, err := h.ledger.Adjust(r.Context(), actorFrom(r), id, amount, req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, adj)
}

func (h *LedgerHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	adjs, err := h.ledger.Adjustments(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, adjs)
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	b, err := h.ledger.Balance(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.features.Leaderboard {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "leaderboard is disabled"})
		return
	}
	board, err := h.ledger.Leaderboard(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
