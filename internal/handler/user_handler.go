package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"commoni-api/internal/middleware"
	"commoni-api/internal/model"
	"commoni-api/internal/service"
	"commoni-api/pkg/apierror"
)

type userManager interface {
	Create(ctx context.Context, loginID string, password string) (model.User, error)
	Get(ctx context.Context, loginID string) (model.User, error)
	GetStatus(ctx context.Context, loginID string) (model.UserStatus, error)
	Update(ctx context.Context, loginID string, in service.UpdateUserInput) error
	Delete(ctx context.Context, loginID string) error
}

type UserHandler struct {
	service userManager
}

func NewUserHandler(service userManager) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Create(r.Context(), payload.ID, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user.View())
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	loginID, ok := selfTarget(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), loginID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user.View())
}

func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	loginID, ok := selfTarget(w, r)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(r.Context(), loginID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, status)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	loginID, ok := selfTarget(w, r)
	if !ok {
		return
	}

	var payload model.UpdateUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), loginID, service.UpdateUserInput{Password: payload.Password}); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	loginID, ok := selfTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), loginID); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true})
}

// selfTarget returns the {id} path parameter when it names the caller.
func selfTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	loginID := chi.URLParam(r, "id")
	if loginID == "" {
		writeError(w, r, apierror.BadRequest("user id is required", "id"))
		return "", false
	}

	subject, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("authentication required", nil))
		return "", false
	}
	if subject.UserID != loginID {
		writeError(w, r, apierror.Forbidden("users can only access their own account"))
		return "", false
	}

	return loginID, true
}
