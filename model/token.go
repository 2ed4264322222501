// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh token in the database.
// A token is grantable only while it is not revoked and not past its expiry;
// revocation is the only mutation a record ever sees, rows are never deleted
// by the application (expired rows are a maintenance concern).
type RefreshToken struct {
	Token     string // Opaque 32-char value, primary key.
	UserID    int
	IsRevoked bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenPair is what a successful sign-in or refresh returns to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
