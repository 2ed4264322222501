package handler

import (
	"card-game-api/common"
	"card-game-api/service"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	// UserKey holds the *model.User resolved from the bearer token.
	UserKey contextKey = "user"
)

// AuthMiddleware validates the bearer access token and puts the resolved
// account into the request context. Validation failures and tokens pointing at
// deleted accounts both end the request with 401.
func AuthMiddleware(authService *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
			err.Send(w)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" || headerParts[1] == "" {
			err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
			err.Send(w)
			return
		}

		user, err := authService.AuthenticateToken(headerParts[1])
		if err != nil {
			appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
			appErr.Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
