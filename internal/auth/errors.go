package auth

import "errors"

// Failure kinds shared by the server, the HTTP layer and the client SDK.
// Credential and authorization failures are terminal and never retried.
var (
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
