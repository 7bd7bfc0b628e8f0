package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// AccessControl defines the access controller methods the admin handler uses.
type AccessControl interface {
	AddAdmin(ctx context.Context, caller, identity string) error
	RemoveAdmin(ctx context.Context, caller, identity string) error
	ListAdmins(ctx context.Context) ([]string, error)
}

// AdminHandler serves admin-set management endpoints.
type AdminHandler struct {
	access AccessControl
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler with the given controller and logger.
func NewAdminHandler(access AccessControl, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		access: access,
		logger: logger,
	}
}

// ListAdmins returns all admin identities, owner first.
// GET /api/admins
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.access.ListAdmins(r.Context())
	if err != nil {
		h.respondError(w, r, "list admins", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

type adminRequest struct {
	Identity string `json:"identity"`
}

// AddAdmin grants admin rights to an identity. Owner only.
// POST /api/admins
func (h *AdminHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	caller := identity(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req adminRequest
	if err := decodeBody(r, &req); err != nil || req.Identity == "" {
		writeError(w, http.StatusBadRequest, "identity is required")
		return
	}

	if err := h.access.AddAdmin(r.Context(), caller, req.Identity); err != nil {
		h.respondError(w, r, "add admin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveAdmin revokes admin rights from an identity. Owner only.
// DELETE /api/admins/{identity}
func (h *AdminHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	caller := identity(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	target := r.PathValue("identity")
	if target == "" {
		writeError(w, http.StatusBadRequest, "missing identity")
		return
	}

	if err := h.access.RemoveAdmin(r.Context(), caller, target); err != nil {
		h.respondError(w, r, "remove admin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if isClientError(err) {
		writeError(w, status, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: "+op+" failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, status, "failed to "+op)
}
