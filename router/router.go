package router

import (
	"card-game-api/handler"
	"card-game-api/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(authHandler *handler.AuthHandler, authService *service.AuthService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/register", handler.ErrorHandlingMiddleware(authHandler.Register))
	mux.Handle("/signin", handler.ErrorHandlingMiddleware(authHandler.SignIn))
	mux.Handle("/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	mux.Handle("/revoke", handler.ErrorHandlingMiddleware(authHandler.Revoke))
	mux.Handle("/me", handler.AuthMiddleware(authService, handler.ErrorHandlingMiddleware(authHandler.Me)))
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
