// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

// SignInRequest defines the payload for credential authentication.
type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token being exchanged for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,len=32"`
}

// RevokeRequest carries the refresh token being revoked.
type RevokeRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
