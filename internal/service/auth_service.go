package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
	"scamfeed/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService struct {
	store  repository.Store
	tokens *TokenIssuer
	audit  *AuditService
}

func NewAuthService(store repository.Store, tokens *TokenIssuer, audit *AuditService) *AuthService {
	return &AuthService{store: store, tokens: tokens, audit: audit}
}

func (s *AuthService) Tokens() *TokenIssuer { return s.tokens }

// Register creates an account. The wallet is created on first use.
func (s *AuthService) Register(ctx context.Context, username, email, password string, meta RequestMeta) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := utf8.RuneCountInString(username); n < 2 || n > 30 {
		return nil, validationErr("username must be 2-30 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationErr("invalid email")
	}
	if len(password) < minPasswordLength {
		return nil, validationErr("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       "https://picsum.photos/seed/" + username + "/200/200",
		Level:        1,
	}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.CreateUser(ctx, u)
	})
	if err != nil {
		return nil, storeErr("register", err)
	}

	logger.Info("user registered", "user_id", u.ID)
	s.audit.LogRegister(ctx, u.ID, meta)
	return u, nil
}

// Login checks the credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*domain.User, string, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrUnauthorized
	}
	if err != nil {
		return nil, "", storeErr("login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrUnauthorized
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, "", err
	}
	s.audit.LogLogin(ctx, u.ID, meta)
	return u, token, nil
}

// Authenticate resolves a bearer token to its user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storeErr("authenticate", err)
	}
	return u, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}
