package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 access tokens carrying a user_id claim.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Generate(userID string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(t.ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates the token and returns its user ID
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("user_id not found")
	}
	return userID, nil
}
