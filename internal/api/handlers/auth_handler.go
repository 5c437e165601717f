package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/metrics"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	users        services.UserServiceProvider
	photos       services.PhotoServiceProvider
	issuer       *auth.Issuer
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. photos may be nil.
func NewAuthHandler(users services.UserServiceProvider, photos services.PhotoServiceProvider, issuer *auth.Issuer, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, photos: photos, issuer: issuer, secureCookie: secureCookie}
}

// CredentialsPayload is the body of register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the registration constraints on a normalized payload.
func (p CredentialsPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(1, 32)),
		validation.Field(&p.Password, validation.Required, validation.Length(4, 64)),
	)
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	payload.Username = services.NormalizeUsername(payload.Username)
	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, err)
		return
	}

	account, err := h.users.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeServiceError(w, err, "Failed to register user")
		return
	}

	w.Header().Set("Location", "/api/users/"+account.ID)
	writeJSON(w, http.StatusCreated, account.Summary())
}

// Login verifies credentials and returns a signed token. Every credential
// failure is a bare 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.users.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeServiceError(w, err, "Failed to log in")
		return
	}

	token, err := h.issuer.Issue(account)
	if err != nil {
		log.Error().Err(err).Str("user_id", account.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	metrics.TokensIssued.Inc()

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token.Value,
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	summary := account.Summary()
	if h.photos != nil {
		if url, err := h.photos.MainPhotoURL(r.Context(), account.ID); err == nil {
			summary.PhotoURL = url
		}
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token.Value, User: summary})
}

// Logout clears the token cookie. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}
