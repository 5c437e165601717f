package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/models"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// Member is a member profile with photos.
type Member struct {
	models.UserSummary
	Photos []models.Photo `json:"photos"`
}

// UserWithRoles is one row of the admin role overview.
type UserWithRoles struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// MemberPage is a page of members together with the pagination header.
type MemberPage struct {
	Members []models.UserSummary
	Page    models.Page
}

// API talks to the datingapp REST backend and attaches the held token.
type API struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewAPI creates a client for baseURL, e.g. http://localhost:5000/api.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (a *API) SetToken(token string) { a.token = token }

// Register creates an account.
func (a *API) Register(ctx context.Context, username, password string) (models.UserSummary, error) {
	var out models.UserSummary
	err := a.do(ctx, http.MethodPost, "/auth/register", credentials{username, password}, &out, nil)
	return out, err
}

// Login exchanges credentials for a session. The token is not attached
// automatically; callers decide where the session lives.
func (a *API) Login(ctx context.Context, username, password string) (*Session, models.UserSummary, error) {
	var out struct {
		Token string             `json:"token"`
		User  models.UserSummary `json:"user"`
	}
	if err := a.do(ctx, http.MethodPost, "/auth/login", credentials{username, password}, &out, nil); err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return nil, models.UserSummary{}, auth.ErrInvalidCredentials
		}
		return nil, models.UserSummary{}, err
	}
	session, err := NewSession(out.Token)
	if err != nil {
		return nil, models.UserSummary{}, err
	}
	return session, out.User, nil
}

// GetMembers returns one page of members.
func (a *API) GetMembers(ctx context.Context, page, size int) (MemberPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("pageNumber", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("pageSize", strconv.Itoa(size))
	}
	path := "/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out MemberPage
	err := a.do(ctx, http.MethodGet, path, nil, &out.Members, func(h http.Header) error {
		if raw := h.Get("Pagination"); raw != "" {
			return json.Unmarshal([]byte(raw), &out.Page)
		}
		return nil
	})
	return out, err
}

// GetMember returns a member with photos.
func (a *API) GetMember(ctx context.Context, id string) (Member, error) {
	var out Member
	err := a.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out, nil)
	return out, err
}

// GetMe returns the member the token belongs to.
func (a *API) GetMe(ctx context.Context) (Member, error) {
	var out Member
	err := a.do(ctx, http.MethodGet, "/users/me", nil, &out, nil)
	return out, err
}

// UsersWithRoles returns the admin role overview.
func (a *API) UsersWithRoles(ctx context.Context) ([]UserWithRoles, error) {
	var out []UserWithRoles
	err := a.do(ctx, http.MethodGet, "/admin/usersWithRoles", nil, &out, nil)
	return out, err
}

// EditRoles replaces the roles of username.
func (a *API) EditRoles(ctx context.Context, username string, roles []string) ([]string, error) {
	var out []string
	body := struct {
		RoleNames []string `json:"roleNames"`
	}{roles}
	err := a.do(ctx, http.MethodPost, "/admin/editRoles/"+url.PathEscape(username), body, &out, nil)
	return out, err
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) do(ctx context.Context, method, path string, in, out interface{}, onHeader func(http.Header) error) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", auth.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if onHeader != nil {
		if err := onHeader(resp.Header); err != nil {
			return fmt.Errorf("decode pagination: %w", err)
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps a non-2xx response onto the shared error taxonomy.
func statusError(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := strings.TrimSpace(string(raw))

	switch {
	case resp.StatusCode == http.StatusBadRequest && msg == "Username already exists":
		return auth.ErrDuplicateUsername
	case resp.StatusCode == http.StatusUnauthorized:
		return auth.ErrUnauthenticated
	case resp.StatusCode == http.StatusForbidden:
		return auth.ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", auth.ErrUpstreamUnavailable, resp.Status)
	default:
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode, msg)
	}
}
