package main

import (
	"log"
	"net/http"

	_ "authd/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"authd/internal/cache"
	"authd/internal/config"
	"authd/internal/db"
	"authd/internal/handler"
	"authd/internal/mailer"
	"authd/internal/model"
	"authd/internal/repository"
	"authd/internal/router"
	"authd/internal/service"
	"authd/internal/token"
)

// @title Account Authentication API
// @version 1.0
// @description Email registration, confirmation links and session tokens.
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.Account{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	accountRepo := repository.NewAccountRepository(gormDB)
	tokenService := token.NewService(cfg.SecretKey, cfg.SessionTTL)
	logMailer := mailer.NewLogMailer(cfg.PublicBaseURL)

	authService := service.NewAuthService(accountRepo, tokenService, logMailer, cacheClient)
	authHandler := handler.NewAuthHandler(authService)

	e := echo.New()
	router.Register(e, authService, authHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
