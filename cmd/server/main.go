package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echolog "github.com/labstack/gommon/log"

	"usersvc/docs"
	"usersvc/internal/auth"
	"usersvc/internal/cache"
	"usersvc/internal/config"
	"usersvc/internal/db"
	"usersvc/internal/handler"
	"usersvc/internal/repository"
	"usersvc/internal/router"
	"usersvc/internal/service"
)

// @title User API
// @version 1.0
// @description User registration, lookup, login and logout.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	userRepo, err := newUserRepository(cfg)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		log.Fatalf("password hasher: %v", err)
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	userService := service.NewUserService(userRepo, jwtService, hasher, tokenStore, cacheClient)
	userHandler := handler.NewUserHandler(userService)

	router.Register(e, jwtService, userHandler)

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	}
	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

func newUserRepository(cfg *config.Config) (repository.UserRepository, error) {
	if cfg.DBDriver == "memory" {
		log.Println("DB_DRIVER=memory: users are kept in process memory")
		return repository.NewMemoryUserRepository(), nil
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.ResetDB {
		log.Println("RESET_DB=true detected, dropping users table...")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return nil, err
	}
	return repository.NewUserRepository(gormDB), nil
}

func logLevel(level string) echolog.Lvl {
	switch level {
	case "debug":
		return echolog.DEBUG
	case "warn":
		return echolog.WARN
	case "error":
		return echolog.ERROR
	case "off":
		return echolog.OFF
	default:
		return echolog.INFO
	}
}
