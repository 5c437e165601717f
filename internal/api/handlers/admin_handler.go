package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AdminHandler exposes role management.
type AdminHandler struct {
	users services.UserServiceProvider
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users services.UserServiceProvider) *AdminHandler {
	return &AdminHandler{users: users}
}

// UserWithRoles is one row of the role overview.
type UserWithRoles struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// EditRolesPayload is the body of an editRoles request.
type EditRolesPayload struct {
	RoleNames []string `json:"roleNames"`
}

// Validate requires at least one role name.
func (p EditRolesPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.RoleNames, validation.Required),
	)
}

// UsersWithRoles lists every account with its roles.
func (h *AdminHandler) UsersWithRoles(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.users.UsersWithRoles(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list users")
		return
	}
	out := make([]UserWithRoles, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, UserWithRoles{ID: a.ID, Username: a.Username, Roles: a.Roles})
	}
	writeJSON(w, http.StatusOK, out)
}

// EditRoles replaces the roles of the user named in the path.
func (h *AdminHandler) EditRoles(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var payload EditRolesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, err)
		return
	}

	roles, err := h.users.EditRoles(r.Context(), username, payload.RoleNames)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed to edit roles")
		writeServiceError(w, err, "Failed to edit roles")
		return
	}
	writeJSON(w, http.StatusOK, roles)
}
