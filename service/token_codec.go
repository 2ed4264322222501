// file: service/token_codec.go

package service

import (
	"card-game-api/logger"
	"card-game-api/model"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec mints and validates the short-lived signed access tokens. It is
// stateless: validity is proven purely by signature, expiry and issuer/audience
// checks, nothing is stored server-side.
type TokenCodec struct {
	secretKey        []byte
	issuer           string
	allowedAudiences []string
	lifetime         time.Duration
}

func NewTokenCodec(secretKey []byte, issuer string, allowedAudiences []string, lifetime time.Duration) *TokenCodec {
	return &TokenCodec{
		secretKey:        secretKey,
		issuer:           issuer,
		allowedAudiences: allowedAudiences,
		lifetime:         lifetime,
	}
}

// AudienceAllowed reports whether an audience value is on the configured
// allow-list. The HTTP layer checks the request Origin against it before any
// token is minted.
func (c *TokenCodec) AudienceAllowed(audience string) bool {
	for _, allowed := range c.allowedAudiences {
		if audience == allowed {
			return true
		}
	}
	return false
}

// Issue mints a signed access token for the given user, bound to the issuer
// and a single audience. A nil user or empty audience is caller misuse and
// panics; issuance is only reachable from an authenticated context.
func (c *TokenCodec) Issue(user *model.User, audience string) (string, error) {
	if user == nil {
		panic("token codec: Issue called without an authenticated user")
	}
	if audience == "" {
		panic("token codec: Issue called with an empty audience")
	}

	now := time.Now()
	claims := &model.AppClaims{
		ID:       strconv.Itoa(user.ID),
		Name:     user.Username,
		Nickname: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secretKey)
	if err != nil {
		logger.Log.WithError(err).WithField("username", user.Username).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// Validate checks signature, issuer, expiry and audience of an access token
// and returns its claims. Every validation failure collapses into
// ErrAuthenticationFailed so callers cannot probe which check rejected the
// token. An empty token string is caller misuse and panics.
func (c *TokenCodec) Validate(tokenString string) (*model.AppClaims, error) {
	if tokenString == "" {
		panic("token codec: Validate called with an empty token string")
	}

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secretKey, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, ErrAuthenticationFailed
	}

	if !c.audienceOnAllowList(claims.Audience) {
		return nil, ErrAuthenticationFailed
	}

	return claims, nil
}

func (c *TokenCodec) audienceOnAllowList(audiences jwt.ClaimStrings) bool {
	for _, audience := range audiences {
		if c.AudienceAllowed(audience) {
			return true
		}
	}
	return false
}
