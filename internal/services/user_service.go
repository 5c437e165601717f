package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/metrics"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Built-in role names.
const (
	RoleMember    = "Member"
	RoleModerator = "Moderator"
	RoleAdmin     = "Admin"
	RoleVIP       = "VIP"
)

var (
	// ErrUnknownRole rejects role names outside KnownRoles.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidUsername rejects usernames that are empty once normalized.
	ErrInvalidUsername = errors.New("username must not be blank")
)

// KnownRoles lists the roles an admin may assign.
var KnownRoles = []string{RoleMember, RoleModerator, RoleAdmin, RoleVIP}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, password string) (models.Account, error)
	Login(ctx context.Context, username, password string) (models.Account, error)
	GetUserByID(ctx context.Context, id string) (models.Account, error)
	ListUsers(ctx context.Context, page, pageSize int, excludeID string) ([]models.Account, models.Page, error)
	UsersWithRoles(ctx context.Context) ([]models.Account, error)
	EditRoles(ctx context.Context, username string, roles []string) ([]string, error)
	TouchLastActive(ctx context.Context, id string) error
}

// UserService registers and authenticates members.
type UserService struct {
	store     CredentialStore
	hash      auth.HashParams
	events    EventServiceProvider
	now       func() time.Time
	dummySalt []byte
}

// NewUserService creates a new UserService. events may be nil.
func NewUserService(store CredentialStore, hash auth.HashParams, events EventServiceProvider) *UserService {
	salt, err := auth.NewSalt()
	if err != nil {
		// crypto/rand failing is unrecoverable.
		panic(err)
	}
	return &UserService{
		store:     store,
		hash:      hash,
		events:    events,
		now:       time.Now,
		dummySalt: salt,
	}
}

// NormalizeUsername lower-cases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register creates an account with a fresh salt. New members get RoleMember.
func (s *UserService) Register(ctx context.Context, username, password string) (models.Account, error) {
	return s.create(ctx, username, password, []string{RoleMember})
}

func (s *UserService) create(ctx context.Context, username, password string, roles []string) (models.Account, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return models.Account{}, ErrInvalidUsername
	}

	exists, err := s.store.Exists(ctx, username)
	if err != nil {
		return models.Account{}, err
	}
	if exists {
		metrics.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
		return models.Account{}, auth.ErrDuplicateUsername
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return models.Account{}, err
	}

	now := s.now().UTC()
	account := models.Account{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordSalt: salt,
		PasswordHash: s.hash.Hash(password, salt),
		Roles:        roles,
		CreatedAt:    now,
		LastActive:   now,
	}

	// The store re-checks uniqueness; a concurrent registration loses here.
	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, auth.ErrDuplicateUsername) {
			metrics.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
		}
		return models.Account{}, err
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	s.record(ctx, "auth.register", "info", fmt.Sprintf("User '%s' registered.", account.Username), &account.ID)
	return account, nil
}

// Login verifies credentials without writing anything. Unknown usernames and
// wrong passwords both yield auth.ErrInvalidCredentials after a full hash
// computation.
func (s *UserService) Login(ctx context.Context, username, password string) (models.Account, error) {
	username = NormalizeUsername(username)

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return models.Account{}, err
		}
		s.hash.Hash(password, s.dummySalt)
		return models.Account{}, s.loginFailed(username)
	}

	if !s.hash.Verify(password, account.PasswordSalt, account.PasswordHash) {
		return models.Account{}, s.loginFailed(username)
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return account, nil
}

func (s *UserService) loginFailed(username string) error {
	metrics.AuthAttempts.WithLabelValues("login", "invalid").Inc()
	log.Warn().Str("username", username).Msg("Failed login")
	return auth.ErrInvalidCredentials
}

// GetUserByID retrieves a single account by its ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.Account, error) {
	return s.store.FindByID(ctx, id)
}

// ListUsers returns one page of members other than excludeID.
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int, excludeID string) ([]models.Account, models.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 50 {
		pageSize = 50
	}

	accounts, total, err := s.store.List(ctx, (page-1)*pageSize, pageSize, excludeID)
	if err != nil {
		return nil, models.Page{}, err
	}
	return accounts, models.Page{
		CurrentPage:  page,
		ItemsPerPage: pageSize,
		TotalItems:   total,
		TotalPages:   (total + pageSize - 1) / pageSize,
	}, nil
}

// maxAdminListing caps the admin role overview.
const maxAdminListing = 500

// UsersWithRoles lists accounts with their roles for the admin panel.
func (s *UserService) UsersWithRoles(ctx context.Context) ([]models.Account, error) {
	accounts, _, err := s.store.List(ctx, 0, maxAdminListing, "")
	return accounts, err
}

// EditRoles replaces the roles of username. Unknown role names are rejected.
func (s *UserService) EditRoles(ctx context.Context, username string, roles []string) ([]string, error) {
	account, err := s.store.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, err
	}

	set := make([]string, 0, len(roles))
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		canonical, ok := canonicalRole(r)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownRole, r)
		}
		if !seen[canonical] {
			seen[canonical] = true
			set = append(set, canonical)
		}
	}

	if err := s.store.SetRoles(ctx, account.ID, set); err != nil {
		return nil, err
	}
	s.record(ctx, "admin.roles.edit", "info", fmt.Sprintf("Roles of '%s' set to %v.", account.Username, set), &account.ID)
	return set, nil
}

func canonicalRole(role string) (string, bool) {
	for _, known := range KnownRoles {
		if strings.EqualFold(known, strings.TrimSpace(role)) {
			return known, true
		}
	}
	return "", false
}

// TouchLastActive stamps the account's last activity with the current time.
func (s *UserService) TouchLastActive(ctx context.Context, id string) error {
	return s.store.TouchLastActive(ctx, id, s.now().UTC())
}

// EnsureAdmin creates the bootstrap administrator unless the username exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.create(ctx, username, password, []string{RoleAdmin, RoleModerator})
	if errors.Is(err, auth.ErrDuplicateUsername) {
		log.Info().Str("username", NormalizeUsername(username)).Msg("Admin account already present")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("username", NormalizeUsername(username)).Msg("Created admin account")
	return nil
}

func (s *UserService) record(ctx context.Context, eventType, level, message string, userID *string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
