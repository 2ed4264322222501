package service

import (
	"card-game-api/logger"
	"card-game-api/model"
	"card-game-api/repository"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAuthenticationFailed covers every expected authentication failure:
	// wrong password, bad signature, expired token, unknown or revoked refresh
	// token. Refresh failures are never distinguished further.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrUserNotFound is returned when no account matches a username lookup.
	// The credential sign-in path distinguishes it from a wrong password; the
	// refresh path never does.
	ErrUserNotFound = errors.New("user not found")
)

const userCacheTTL = 5 * time.Minute

// Identity is the authenticated account acting in the current request.
// It is constructed once, after a successful credential or token check,
// and is read-only afterwards.
type Identity struct {
	user *model.User
}

// NewIdentity wraps an authenticated user. A nil user is caller misuse.
func NewIdentity(user *model.User) Identity {
	if user == nil {
		panic("auth service: NewIdentity called with a nil user")
	}
	return Identity{user: user}
}

// User returns the authenticated account.
func (i Identity) User() *model.User {
	return i.user
}

// AuthService orchestrates credential verification, access-token minting and
// the refresh-token rotation/revocation lifecycle.
type AuthService struct {
	userRepo        repository.IUserRepository
	tokenRepo       repository.ITokenRepository
	codec           *TokenCodec
	cache           ICacheClient
	refreshLifetime time.Duration
}

// NewAuthService creates a new AuthService. The cache client is optional;
// without one every token validation resolves the account from the database.
func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository, codec *TokenCodec, cache ICacheClient, refreshLifetime time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		tokenRepo:       tokenRepo,
		codec:           codec,
		cache:           cache,
		refreshLifetime: refreshLifetime,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), err
}

// AudienceAllowed reports whether an audience is on the configured allow-list.
func (s *AuthService) AudienceAllowed(audience string) bool {
	return s.codec.AudienceAllowed(audience)
}

// Authenticate verifies a username/password pair. Unknown usernames surface as
// ErrUserNotFound, a wrong password as ErrAuthenticationFailed. Empty inputs
// are caller misuse and panic.
func (s *AuthService) Authenticate(username, password string) (*model.User, error) {
	if username == "" || password == "" {
		panic("auth service: Authenticate called with an empty username or password")
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.WithField("username", username).Warn("Credential check failed")
		return nil, ErrAuthenticationFailed
	}

	return user, nil
}

// AuthenticateToken validates an access token and resolves the account it was
// issued to. Any validation failure surfaces as ErrAuthenticationFailed; a
// token whose account no longer exists surfaces as ErrUserNotFound.
func (s *AuthService) AuthenticateToken(tokenString string) (*model.User, error) {
	claims, err := s.codec.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.lookupUser(claims.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GenerateTokens mints an access token for the acting identity and persists a
// fresh refresh token, returning both. Calling it without an established
// identity or with an empty audience is caller misuse and panics.
func (s *AuthService) GenerateTokens(identity Identity, audience string) (*model.TokenPair, error) {
	if identity.user == nil {
		panic("auth service: GenerateTokens called without an authenticated identity")
	}
	if audience == "" {
		panic("auth service: GenerateTokens called with an empty audience")
	}

	accessToken, err := s.codec.Issue(identity.user, audience)
	if err != nil {
		return nil, err
	}

	record := &model.RefreshToken{
		Token:     newRefreshTokenString(),
		UserID:    identity.user.ID,
		ExpiresAt: time.Now().Add(s.refreshLifetime),
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("could not persist refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: record.Token,
	}, nil
}

// RefreshTokens redeems a refresh token for a brand-new pair. The presented
// token is revoked before the new pair is minted, so it can never be redeemed
// twice. Unknown, expired and already-revoked tokens are indistinguishable to
// the caller: all three fail with ErrAuthenticationFailed.
func (s *AuthService) RefreshTokens(presentedToken, audience string) (*model.TokenPair, error) {
	if presentedToken == "" {
		panic("auth service: RefreshTokens called with an empty token")
	}
	if audience == "" {
		panic("auth service: RefreshTokens called with an empty audience")
	}

	record, err := s.tokenRepo.GetByToken(presentedToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if record.IsRevoked || !record.ExpiresAt.After(time.Now()) {
		logger.Log.WithField("user_id", record.UserID).Warn("Refresh attempted with a revoked or expired token")
		return nil, ErrAuthenticationFailed
	}

	// Conditional update: of two concurrent refreshes of the same token, at
	// most one observes it as still active.
	revokedNow, err := s.tokenRepo.MarkRevokedIfActive(presentedToken)
	if err != nil {
		return nil, err
	}
	if !revokedNow {
		return nil, ErrAuthenticationFailed
	}

	owner, err := s.userRepo.GetUserByID(record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	return s.GenerateTokens(NewIdentity(owner), audience)
}

// RevokeRefreshToken revokes a refresh token. Unknown tokens are a silent
// no-op and revoking twice is harmless, so callers cannot probe which tokens
// exist. Only storage errors surface.
func (s *AuthService) RevokeRefreshToken(token string) error {
	if token == "" {
		panic("auth service: RevokeRefreshToken called with an empty token")
	}
	return s.tokenRepo.MarkRevoked(token)
}

// lookupUser resolves a username with a cache-aside on Redis. Every
// authenticated request passes through here, so cache hits save a query; any
// cache trouble silently falls through to the database.
func (s *AuthService) lookupUser(username string) (*model.User, error) {
	cacheKey := fmt.Sprintf("user:%s", username)
	ctx := context.Background()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var user model.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			s.cache.Set(ctx, cacheKey, data, userCacheTTL)
		}
	}

	return user, nil
}

// newRefreshTokenString produces a fresh 32-char opaque token value.
func newRefreshTokenString() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
