package handler

import (
	"context"
	"net/http"
	"strings"

	"commoni-api/internal/middleware"
	"commoni-api/internal/model"
	"commoni-api/pkg/apierror"
)

type authenticator interface {
	Login(ctx context.Context, loginID string, password string) (model.TokenPair, error)
	Renew(ctx context.Context, raw string) (model.RenewedTokens, error)
	IssuePermanent(ctx context.Context, loginID string) (string, error)
}

type AuthHandler struct {
	service authenticator
}

func NewAuthHandler(service authenticator) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login accepts the OAuth2 password form (username, password) or the same
// fields as JSON.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if isJSON(r) {
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, r, apierror.BadRequest("invalid form body", ""))
			return
		}
		payload.Username = r.PostForm.Get("username")
		payload.Password = r.PostForm.Get("password")
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" {
		writeError(w, r, apierror.BadRequest("username is required", "username"))
		return
	}
	if payload.Password == "" {
		writeError(w, r, apierror.BadRequest("password is required", "password"))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

// Refresh takes the refresh token from the Authorization header.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, r, apierror.Unauthorized("missing or invalid authorization header", nil))
		return
	}

	tokens, err := h.service.Renew(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("authentication required", nil))
		return
	}

	writeSuccess(w, http.StatusOK, subject)
}

func (h *AuthHandler) Permanent(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("authentication required", nil))
		return
	}

	raw, err := h.service.IssuePermanent(r.Context(), subject.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.PermanentToken{Token: raw})
}
