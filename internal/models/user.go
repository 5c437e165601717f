package models

import "time"

// Account represents a registered member.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"` // Never expose this to the client
	PasswordSalt []byte    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created"`
	LastActive   time.Time `json:"lastActive"`
}

// HasRole reports whether the account carries role.
func (a Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserSummary is the public projection of an Account returned by the API.
type UserSummary struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Roles      []string  `json:"roles,omitempty"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
}

// Summary drops credential material.
func (a Account) Summary() UserSummary {
	return UserSummary{
		ID:         a.ID,
		Username:   a.Username,
		Roles:      a.Roles,
		Created:    a.CreatedAt,
		LastActive: a.LastActive,
	}
}

// Page describes the pagination header written for list endpoints.
type Page struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}
