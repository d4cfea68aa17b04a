package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"scamfeed/internal/config"
	"scamfeed/internal/db"
	"scamfeed/internal/repository"
	"scamfeed/internal/service"
)

func main() {
	username := flag.String("username", "testuser", "username")
	email := flag.String("email", "test@example.com", "email")
	password := flag.String("password", "password123", "password")
	flag.Parse()

	// expects DATABASE_URL and JWT_SECRET
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	store := repository.NewPgStore(pool)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	auth := service.NewAuthService(store, tokens, service.NewAuditService(store))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := auth.Register(ctx, *username, *email, *password, service.RequestMeta{IP: "127.0.0.1", UserAgent: "create_test_user"})
	switch {
	case errors.Is(err, service.ErrConflict):
		log.Printf("user already exists email=%s\n", *email)
	case err != nil:
		log.Fatalf("create user failed: %v", err)
	default:
		log.Printf("user created id=%s\n", u.ID)
	}

	u, token, err := auth.Login(ctx, *email, *password, service.RequestMeta{})
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Printf("fetched user id=%s username=%s created_at=%v\n", u.ID, u.Username, u.CreatedAt)
	log.Printf("token=%s\n", token)
}
