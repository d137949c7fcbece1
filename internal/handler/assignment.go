package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/service"
)

type AssignmentHandler struct {
	assignments *service.AssignmentService
	logger      *slog.Logger
}

func NewAssignmentHandler(as *service.AssignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: as, logger: logger}
}

func (h *AssignmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req approveRequest
	if err := decode(w, r, &req, true); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.assignments.Approve(r.Context(), actorFrom(r), id, req.value())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req rejectRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.assignments.Reject(r.Context(), actorFrom(r), id, req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
