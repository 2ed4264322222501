package handler

import (
	"card-game-api/common"
	"card-game-api/logger"
	"card-game-api/model"
	"card-game-api/repository"
	"card-game-api/service"
	"encoding/json"
	"errors"
	"net/http"
)

type AuthHandler struct {
	service  *service.AuthService
	userRepo repository.IUserRepository
}

func NewAuthHandler(service *service.AuthService, userRepo repository.IUserRepository) *AuthHandler {
	return &AuthHandler{service: service, userRepo: userRepo}
}

// requestAudience resolves the per-client audience from the request Origin and
// checks it against the configured allow-list.
func (h *AuthHandler) requestAudience(r *http.Request) (string, bool) {
	audience := r.Header.Get("Origin")
	if audience == "" || !h.service.AudienceAllowed(audience) {
		return "", false
	}
	return audience, true
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user account with a username, display name and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "New user data"
// @Success      201 {object} model.User
// @Failure      400 {string} string "Validation error"
// @Failure      409 {object} common.AppError
// @Router       /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	hash, err := h.service.HashPassword(req.Password)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Error hashing password", err)
	}

	user := &model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
	}
	if err := h.userRepo.CreateUser(user); err != nil {
		return common.NewAppError(http.StatusConflict, "Could not create user", err)
	}

	logger.Log.WithField("username", user.Username).Info("New user registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
	return nil
}

// SignIn godoc
// @Summary      Sign in with credentials
// @Description  Verifies a username/password pair and issues an access+refresh token pair bound to the request Origin.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.SignInRequest true "Credentials"
// @Success      200 {object} model.TokenPair
// @Failure      401 {object} common.AppError
// @Router       /signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignInRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	audience, ok := h.requestAudience(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Origin is not an allowed audience", nil)
	}

	user, err := h.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrAuthenticationFailed) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid username or password", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not sign in", err)
	}

	pair, err := h.service.GenerateTokens(service.NewIdentity(user), audience)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not issue tokens", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new pair
// @Description  Redeems a single-use refresh token. The presented token is revoked whether or not a new pair is issued.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "Refresh token"
// @Success      200 {object} model.TokenPair
// @Failure      401 {object} common.AppError
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	audience, ok := h.requestAudience(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Origin is not an allowed audience", nil)
	}

	pair, err := h.service.RefreshTokens(req.RefreshToken, audience)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not refresh tokens", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Revoke godoc
// @Summary      Revoke a refresh token
// @Description  Revokes a refresh token. Always reports success, whether or not the token existed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RevokeRequest true "Refresh token"
// @Success      200 {object} map[string]string
// @Router       /revoke [post]
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RevokeRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.service.RevokeRefreshToken(req.RefreshToken); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not revoke token", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	return nil
}

// Me godoc
// @Summary      Current user
// @Description  Returns the account resolved from the bearer access token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} model.User
// @Failure      401 {object} common.AppError
// @Router       /me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := r.Context().Value(UserKey).(*model.User)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "No authenticated user in request", nil)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user)
	return nil
}
