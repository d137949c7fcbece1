package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/service"
)

type ChoreHandler struct {
	chores      *service.ChoreService
	assignments *service.AssignmentService
	catalog     config.Catalog
	logger      *slog.Logger
}

func NewChoreHandler(cs *service.ChoreService, as *service.AssignmentService, catalog config.Catalog, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, assignments: as, catalog: catalog, logger: logger}
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	c, err := h.chores.CreateChore(r.Context(), actorFrom(r), req.draft())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.chores.List(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	c, err := h.chores.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req choreUpdateRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	c, err := h.chores.Update(r.Context(), actorFrom(r), id, req.update())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) setDisabled(disabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
			return
		}
		c, err := h.chores.SetDisabled(r.Context(), actorFrom(r), id, disabled)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (h *ChoreHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(true)(w, r)
}

func (h *ChoreHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(false)(w, r)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.chores.Delete(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete marks the caller's assignment done or claims a pool chore.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	a, err := h.chores.CompleteOrClaim(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ChoreHandler) Available(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	avail, err := h.assignments.ListAvailableForChild(r.Context(), actor, actor.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

func (h *ChoreHandler) PendingApproval(w http.ResponseWriter, r *http.Request) {
	views, err := h.assignments.ListPendingApproval(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ChoreHandler) Templates(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Features.Templates {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "templates are disabled"})
		return
	}
	templates := h.catalog.Templates
	if templates == nil {
		templates = []config.ChoreTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}
