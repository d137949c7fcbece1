package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/service"
)

type AuthHandler struct {
	families *service.FamilyService
	tokens   *auth.TokenIssuer
	logger   *slog.Logger
}

func NewAuthHandler(fs *service.FamilyService, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{families: fs, tokens: tokens, logger: logger}
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	tok, err := h.tokens.Issue(*u)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, tokenResponse{Token: tok, User: u})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	u, err := h.families.Register(r.Context(), service.Registration{
		FamilyName:  req.FamilyName,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	u, err := h.families.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, u)
}
