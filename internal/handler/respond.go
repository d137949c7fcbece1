package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorFrom(r *http.Request) service.Actor {
	ac, _ := auth.FromContext(r.Context())
	return service.Actor{UserID: ac.UserID, FamilyID: ac.FamilyID, Role: ac.Role}
}

// writeError maps domain failures to statuses. Anything unrecognized is
// logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCooldown):
		var de *service.Error
		body := map[string]string{"error": err.Error()}
		if errors.As(err, &de) && de.AvailableAt != nil {
			body["available_at"] = de.AvailableAt.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusLocked, body)
		return
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
