package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for member profiles.
type UserHandler struct {
	service services.UserServiceProvider
	photos  services.PhotoServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, photos services.PhotoServiceProvider) *UserHandler {
	return &UserHandler{service: service, photos: photos}
}

// MemberDetail is a member profile with photos.
type MemberDetail struct {
	models.UserSummary
	Photos []models.Photo `json:"photos"`
}

func (h *UserHandler) summarize(r *http.Request, a models.Account) models.UserSummary {
	s := a.Summary()
	if url, err := h.photos.MainPhotoURL(r.Context(), a.ID); err == nil {
		s.PhotoURL = url
	}
	return s
}

// List returns one page of members, excluding the caller.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	accounts, p, err := h.service.ListUsers(r.Context(), page, size, claims.UserID())
	if err != nil {
		writeServiceError(w, err, "Failed to list users")
		return
	}

	out := make([]models.UserSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, h.summarize(r, a))
	}

	header, _ := json.Marshal(p)
	w.Header().Set("Pagination", string(header))
	w.Header().Set("Access-Control-Expose-Headers", "Pagination")
	writeJSON(w, http.StatusOK, out)
}

// Get handles retrieving a member by ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r, chi.URLParam(r, "id"))
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}
	h.writeDetail(w, r, claims.UserID())
}

func (h *UserHandler) writeDetail(w http.ResponseWriter, r *http.Request, id string) {
	account, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to get user by ID")
		writeServiceError(w, err, "Failed to get user")
		return
	}

	photos, err := h.photos.ListPhotos(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to list photos")
		return
	}

	writeJSON(w, http.StatusOK, MemberDetail{UserSummary: h.summarize(r, account), Photos: photos})
}
