package models

import "time"

// Photo belongs to a single account. At most one photo per account is main.
type Photo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	URL       string    `json:"url"`
	PublicID  string    `json:"-"`
	IsMain    bool      `json:"isMain"`
	CreatedAt time.Time `json:"dateAdded"`
}
