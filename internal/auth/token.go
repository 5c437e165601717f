package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/datingapp-be/internal/models"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 60 * time.Minute

var errEmptyKey = errors.New("signing key must not be empty")

// SigningConfig holds the HMAC key and token parameters. It is built once at
// startup and shared read-only by the issuer and the validator.
type SigningConfig struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewSigningConfig copies key so later mutation by the caller has no effect.
func NewSigningConfig(key []byte, issuer string, ttl time.Duration) (SigningConfig, error) {
	if len(key) == 0 {
		return SigningConfig{}, errEmptyKey
	}
	if ttl <= 0 {
		return SigningConfig{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return SigningConfig{key: k, issuer: issuer, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (c SigningConfig) TTL() time.Duration { return c.ttl }

// Claims defines the JWT claims structure.
type Claims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the account id carried in the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// Token is a signed compact JWT with its validity window.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Option customises an Issuer or Validator.
type Option func(*clock)

type clock struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Issuer mints signed tokens for authenticated accounts.
type Issuer struct {
	cfg   SigningConfig
	clock clock
}

// NewIssuer creates a new Issuer.
func NewIssuer(cfg SigningConfig, opts ...Option) *Issuer {
	return &Issuer{cfg: cfg, clock: newClock(opts)}
}

// Issue signs a token for account with HMAC-SHA-512. The wire format carries
// whole seconds, so iat is rounded down and exp up; the token is valid for at
// least the full TTL.
func (i *Issuer) Issue(account models.Account) (Token, error) {
	issued := i.clock.now()
	now := issued.Truncate(time.Second)
	exp := issued.Add(i.cfg.ttl)
	if rounded := exp.Truncate(time.Second); !rounded.Equal(exp) {
		exp = rounded.Add(time.Second)
	}

	claims := &Claims{
		Name:  account.Username,
		Roles: account.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.cfg.issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.cfg.key)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{Value: signed, IssuedAt: now, ExpiresAt: exp}, nil
}

// Validator verifies tokens produced by an Issuer sharing the same SigningConfig.
type Validator struct {
	cfg    SigningConfig
	parser *jwt.Parser
}

// NewValidator creates a new Validator.
func NewValidator(cfg SigningConfig, opts ...Option) *Validator {
	c := newClock(opts)
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if cfg.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.issuer))
	}
	return &Validator{cfg: cfg, parser: jwt.NewParser(parserOpts...)}
}

// Validate checks signature, algorithm and the [iat, exp) window. Every
// failure is reported as ErrUnauthenticated.
func (v *Validator) Validate(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return v.cfg.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	return claims, nil
}
