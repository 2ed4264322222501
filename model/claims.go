package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the full set of claims carried by an access token. Claims are
// only ever read through this struct; raw map access stays inside the codec.
type AppClaims struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}
