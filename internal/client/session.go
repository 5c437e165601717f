package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/datingapp-be/internal/auth"
)

// Session is the token held by a client together with its decoded claims.
// The client cannot verify the signature; the server does that on every call.
type Session struct {
	Token  string
	Claims auth.Claims
}

// NewSession decodes token without verifying it.
func NewSession(token string) (*Session, error) {
	var claims auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, errors.New("decode token: missing sub or exp claim")
	}
	return &Session{Token: token, Claims: claims}, nil
}

// Expired reports whether the token is past its exp claim at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.Claims.ExpiresAt.Time)
}

// UserID returns the subject claim.
func (s *Session) UserID() string { return s.Claims.Subject }

// Username returns the name claim.
func (s *Session) Username() string { return s.Claims.Name }

// Roles returns the role claims.
func (s *Session) Roles() []string { return s.Claims.Roles }

// HasAnyRole reports whether the session carries one of roles.
func (s *Session) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range s.Claims.Roles {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
