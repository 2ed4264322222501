// File: app/app.go
package app

import (
	"card-game-api/config"
	"card-game-api/db"
	"card-game-api/handler"
	"card-game-api/logger"
	"card-game-api/repository"
	"card-game-api/router"
	"card-game-api/service"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	// The account cache is optional; without Redis, token validation resolves
	// accounts from the database on every request.
	var cache service.ICacheClient
	if redisClient, err := db.ConnectRedis(); err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, continuing without the account cache")
	} else {
		cache = redisClient
		defer redisClient.Close()
	}

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)

	jwtCfg := config.AppConfig.JWT
	codec := service.NewTokenCodec(
		[]byte(jwtCfg.SecretKey),
		jwtCfg.Issuer,
		jwtCfg.AllowedAudiences,
		time.Duration(jwtCfg.AccessTokenMinutes)*time.Minute,
	)
	authService := service.NewAuthService(
		userRepo,
		tokenRepo,
		codec,
		cache,
		time.Duration(jwtCfg.RefreshTokenDays)*24*time.Hour,
	)
	authHandler := handler.NewAuthHandler(authService, userRepo)

	r := router.NewRouter(authHandler, authService)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
