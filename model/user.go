package model

import "time"

// User is an authorable account: it signs in with a username and shows a
// display name on decks and cards it creates.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // The hash is not exposed in JSON responses.
	CreatedAt    time.Time `json:"created_at"`
}
