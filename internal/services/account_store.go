package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/database"
	"github.com/isdelr/datingapp-be/internal/models"
)

// ErrAccountNotFound is returned by a CredentialStore lookup that matched nothing.
var ErrAccountNotFound = errors.New("account not found")

// CredentialStore persists accounts with their salted password hash.
// Usernames are expected to be normalized by the caller.
type CredentialStore interface {
	// Create fails with auth.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, account models.Account) error
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, offset, limit int, excludeID string) ([]models.Account, int, error)
	SetRoles(ctx context.Context, userID string, roles []string) error
	TouchLastActive(ctx context.Context, userID string, at time.Time) error
}

// SQLCredentialStore is a CredentialStore over database/sql.
type SQLCredentialStore struct {
	db *database.DB
}

// NewSQLCredentialStore creates a new SQLCredentialStore.
func NewSQLCredentialStore(db *database.DB) *SQLCredentialStore {
	return &SQLCredentialStore{db: db}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", auth.ErrUpstreamUnavailable, err)
}

// Create inserts the account and its roles in one transaction. The UNIQUE
// constraint on username decides concurrent registrations.
func (s *SQLCredentialStore) Create(ctx context.Context, account models.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO users (id, username, password_hash, password_salt, created_at, last_active) VALUES (?, ?, ?, ?, ?, ?)"),
		account.ID,
		account.Username,
		base64.StdEncoding.EncodeToString(account.PasswordHash),
		base64.StdEncoding.EncodeToString(account.PasswordSalt),
		account.CreatedAt,
		account.LastActive,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return auth.ErrDuplicateUsername
		}
		return unavailable(err)
	}

	for _, role := range account.Roles {
		if _, err := tx.ExecContext(ctx, s.db.Rebind("INSERT INTO user_roles (user_id, role) VALUES (?, ?)"), account.ID, role); err != nil {
			return unavailable(err)
		}
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return auth.ErrDuplicateUsername
		}
		return unavailable(err)
	}
	return nil
}

const selectAccount = "SELECT id, username, password_hash, password_salt, created_at, last_active FROM users"

func (s *SQLCredentialStore) scanAccount(ctx context.Context, row *sql.Row) (models.Account, error) {
	var (
		a          models.Account
		hash, salt string
	)
	if err := row.Scan(&a.ID, &a.Username, &hash, &salt, &a.CreatedAt, &a.LastActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, unavailable(err)
	}

	var err error
	if a.PasswordHash, err = base64.StdEncoding.DecodeString(hash); err != nil {
		return models.Account{}, fmt.Errorf("corrupt password hash for %s: %w", a.ID, err)
	}
	if a.PasswordSalt, err = base64.StdEncoding.DecodeString(salt); err != nil {
		return models.Account{}, fmt.Errorf("corrupt password salt for %s: %w", a.ID, err)
	}
	if a.Roles, err = s.loadRoles(ctx, a.ID); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// FindByUsername retrieves a single account by its normalized username.
func (s *SQLCredentialStore) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(selectAccount+" WHERE username = ?"), username)
	return s.scanAccount(ctx, row)
}

// FindByID retrieves a single account by its ID.
func (s *SQLCredentialStore) FindByID(ctx context.Context, id string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(selectAccount+" WHERE id = ?"), id)
	return s.scanAccount(ctx, row)
}

// Exists reports whether username is taken.
func (s *SQLCredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT COUNT(1) FROM users WHERE username = ?"), username).Scan(&n)
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

// List returns a page of accounts ordered by last activity, newest first, and the total count.
func (s *SQLCredentialStore) List(ctx context.Context, offset, limit int, excludeID string) ([]models.Account, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT COUNT(1) FROM users WHERE id <> ?"), excludeID).Scan(&total); err != nil {
		return nil, 0, unavailable(err)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		"SELECT id, username, created_at, last_active FROM users WHERE id <> ? ORDER BY last_active DESC, username ASC LIMIT ? OFFSET ?"),
		excludeID, limit, offset)
	if err != nil {
		return nil, 0, unavailable(err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.CreatedAt, &a.LastActive); err != nil {
			return nil, 0, unavailable(err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, unavailable(err)
	}
	rows.Close()

	for i := range accounts {
		if accounts[i].Roles, err = s.loadRoles(ctx, accounts[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return accounts, total, nil
}

func (s *SQLCredentialStore) loadRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind("SELECT role FROM user_roles WHERE user_id = ? ORDER BY role"), userID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, unavailable(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return roles, nil
}

// SetRoles replaces the role set of userID.
func (s *SQLCredentialStore) SetRoles(ctx context.Context, userID string, roles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.db.Rebind("DELETE FROM user_roles WHERE user_id = ?"), userID); err != nil {
		return unavailable(err)
	}
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, s.db.Rebind("INSERT INTO user_roles (user_id, role) VALUES (?, ?)"), userID, role); err != nil {
			return unavailable(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable(err)
	}
	return nil
}

// TouchLastActive records the time of the user's latest authenticated request.
func (s *SQLCredentialStore) TouchLastActive(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE users SET last_active = ? WHERE id = ?"), at, userID)
	if err != nil {
		return unavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
