package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/chorely/internal/service"
)

type FamilyHandler struct {
	families *service.FamilyService
	logger   *slog.Logger
}

func NewFamilyHandler(fs *service.FamilyService, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: fs, logger: logger}
}

func (h *FamilyHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.families.Me(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.families.Family(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := h.families.RenameFamily(r.Context(), actorFrom(r), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.families.ListChildren(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *FamilyHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	child, err := h.families.AddChild(r.Context(), actorFrom(r), service.NewAccount{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (h *FamilyHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.families.RemoveChild(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FamilyHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	acts, err := h.families.Activity(r.Context(), actorFrom(r), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, acts)
}
