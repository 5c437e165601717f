package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/rs/zerolog/log"
)

const maxPhotoSize = 10 << 20

// PhotoHandler handles photo upload and management for the owning member.
type PhotoHandler struct {
	service services.PhotoServiceProvider
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(service services.PhotoServiceProvider) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// Get returns a single photo of the user in the path.
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	photo, err := h.service.GetPhoto(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get photo")
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// Upload accepts a multipart form with a "file" part.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := h.service.AddPhoto(r.Context(), userID, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to add photo")
		writeServiceError(w, err, "Could not add the photo")
		return
	}

	w.Header().Set("Location", "/api/users/"+userID+"/photos/"+photo.ID)
	writeJSON(w, http.StatusCreated, photo)
}

// SetMain marks the photo as the member's main photo.
func (h *PhotoHandler) SetMain(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetMain(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Could not set photo to main")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a non-main photo.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePhoto(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete the photo")
		return
	}
	w.WriteHeader(http.StatusOK)
}
