package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueToken(t *testing.T, now time.Time, id string, roles ...string) string {
	t.Helper()
	cfg, err := auth.NewSigningConfig([]byte("client-test-signing-key"), "datingapp", time.Hour)
	require.NoError(t, err)
	tok, err := auth.NewIssuer(cfg, auth.WithClock(func() time.Time { return now })).
		Issue(models.Account{ID: id, Username: "alice", Roles: roles})
	require.NoError(t, err)
	return tok.Value
}

func TestSession(t *testing.T) {
	now := time.Now()
	s, err := NewSession(issueToken(t, now, "u-1", "Member", "Admin"))
	require.NoError(t, err)

	assert.Equal(t, "u-1", s.UserID())
	assert.Equal(t, "alice", s.Username())
	assert.ElementsMatch(t, []string{"Member", "Admin"}, s.Roles())
	assert.True(t, s.HasAnyRole("moderator", "admin"))
	assert.False(t, s.HasAnyRole("VIP"))

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Hour)))

	_, err = NewSession("not-a-token")
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")
	store := NewFileStore(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	now := time.Now()
	s, err := NewSession(issueToken(t, now, "u-1"))
	require.NoError(t, err)
	require.NoError(t, store.Save(s))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s.Token, loaded.Token)

	store.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expired session should be removed")

	assert.NoError(t, store.Clear())
}

func TestAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"duplicate", http.StatusBadRequest, "Username already exists", auth.ErrDuplicateUsername},
		{"unauthorized", http.StatusUnauthorized, "", auth.ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, "Forbidden", auth.ErrForbidden},
		{"not found", http.StatusNotFound, "User not found", ErrNotFound},
		{"unavailable", http.StatusServiceUnavailable, "", auth.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, tt.body, tt.status)
			}))
			defer srv.Close()

			_, err := NewAPI(srv.URL, nil).Register(context.Background(), "bob", "secret")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAPIUnreachableIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAPI(url, nil).GetMembers(context.Background(), 1, 5)
	assert.ErrorIs(t, err, auth.ErrUpstreamUnavailable)
}

func TestAPILogin(t *testing.T) {
	token := issueToken(t, time.Now(), "u-1", "Member")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "password" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token": token,
			"user":  models.UserSummary{ID: "u-1", Username: "alice"},
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL+"/", nil)

	s, user, err := api.Login(context.Background(), "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID())
	assert.Equal(t, "alice", user.Username)

	_, _, err = api.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAPIAttachesTokenAndReadsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		assert.Equal(t, "5", r.URL.Query().Get("pageSize"))
		w.Header().Set("Pagination", `{"currentPage":2,"itemsPerPage":5,"totalItems":7,"totalPages":2}`)
		_ = json.NewEncoder(w).Encode([]models.UserSummary{{ID: "a"}, {ID: "b"}})
	}))
	defer srv.Close()

	page, err := NewAPI(srv.URL, nil).WithToken("tok").GetMembers(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Len(t, page.Members, 2)
	assert.Equal(t, models.Page{CurrentPage: 2, ItemsPerPage: 5, TotalItems: 7, TotalPages: 2}, page.Page)
}
