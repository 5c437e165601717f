package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/datingapp-be/internal/metrics"
	"github.com/rs/zerolog/log"
)

// TokenCookie is the HttpOnly cookie set on login and read as a fallback.
const TokenCookie = "token"

// Denial describes a request the guard rejected.
type Denial struct {
	Request *http.Request
	Claims  *Claims // nil for unauthenticated requests
	Err     error   // wraps ErrUnauthenticated or ErrForbidden
}

// DenyHook observes guard rejections, e.g. to record security events.
type DenyHook func(Denial)

// Guard enforces authentication and authorization on HTTP routes.
type Guard struct {
	validator *Validator
	onDeny    DenyHook
}

// NewGuard creates a new Guard. onDeny may be nil.
func NewGuard(validator *Validator, onDeny DenyHook) *Guard {
	return &Guard{validator: validator, onDeny: onDeny}
}

// Authorize succeeds when required is empty or the claims carry at least one
// of the required roles. Role names compare case-insensitively.
func Authorize(claims *Claims, required ...string) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	for _, want := range required {
		for _, have := range claims.Roles {
			if strings.EqualFold(want, have) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: requires one of %v", ErrForbidden, required)
}

// AuthorizeOwner succeeds only when the token subject is ownerID.
func AuthorizeOwner(claims *Claims, ownerID string) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if ownerID == "" || claims.Subject != ownerID {
		return fmt.Errorf("%w: resource belongs to another user", ErrForbidden)
	}
	return nil
}

// ExtractToken reads the bearer token from the Authorization header, falling
// back to the token cookie when no header is sent.
func ExtractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
		}
		return strings.TrimSpace(value), nil
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", fmt.Errorf("%w: missing auth token", ErrUnauthenticated)
}

// Authenticate rejects requests without a valid token and stores the claims
// in the request context.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := ExtractToken(r)
		if err == nil {
			var claims *Claims
			claims, err = g.validator.Validate(tokenStr)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}
		}
		g.deny(w, Denial{Request: r, Err: err})
	})
}

// RequireRoles must run after Authenticate. It answers 403 when the caller
// holds none of roles.
func (g *Guard) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if err := Authorize(claims, roles...); err != nil {
				g.deny(w, Denial{Request: r, Claims: claims, Err: err})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner must run after Authenticate. The chi URL parameter named param
// must equal the token subject.
func (g *Guard) RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if err := AuthorizeOwner(claims, chi.URLParam(r, param)); err != nil {
				g.deny(w, Denial{Request: r, Claims: claims, Err: err})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, d Denial) {
	if g.onDeny != nil {
		g.onDeny(d)
	}

	if errors.Is(d.Err, ErrForbidden) {
		metrics.AccessDenied.WithLabelValues("forbidden").Inc()
		log.Warn().Err(d.Err).Str("user_id", d.Claims.UserID()).Str("path", d.Request.URL.Path).Msg("Access forbidden")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	metrics.AccessDenied.WithLabelValues("unauthenticated").Inc()
	log.Debug().Err(d.Err).Str("path", d.Request.URL.Path).Msg("Rejected unauthenticated request")
	w.Header().Set("WWW-Authenticate", `Bearer realm="datingapp"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
