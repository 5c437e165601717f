package api

import (
	"net/http"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/rs/zerolog/log"
)

// trackActivity updates the caller's last-active timestamp after the handler runs.
func trackActivity(users services.UserServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				return
			}
			if err := users.TouchLastActive(r.Context(), claims.UserID()); err != nil {
				log.Debug().Err(err).Str("user_id", claims.UserID()).Msg("Failed to update last active")
			}
		})
	}
}
