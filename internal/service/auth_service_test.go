package service

import (
	"context"
	"testing"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	auth := NewAuthService(store, NewTokenIssuer("secret", time.Hour), NewAuditService(store))

	u, err := auth.Register(ctx, "hunter", "Hunter@Example.com", "hunter2!", RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "hunter@example.com", u.Email)
	assert.NotEqual(t, "hunter2!", u.PasswordHash)

	_, err = auth.Register(ctx, "hunter", "other@example.com", "hunter2!", RequestMeta{})
	assert.ErrorIs(t, err, ErrConflict)

	_, token, err := auth.Login(ctx, "hunter@example.com", "hunter2!", RequestMeta{})
	require.NoError(t, err)

	me, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	_, _, err = auth.Login(ctx, "hunter@example.com", "wrong", RequestMeta{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = auth.Login(ctx, "ghost@example.com", "hunter2!", RequestMeta{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	actions := []string{}
	for _, l := range store.AuditLogs() {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{domain.AuditActionRegister, domain.AuditActionLogin}, actions)
}

func TestAuth_RegisterValidation(t *testing.T) {
	store := memory.New()
	auth := NewAuthService(store, NewTokenIssuer("secret", time.Hour), nil)

	_, err := auth.Register(context.Background(), "x", "a@b.c", "longenough", RequestMeta{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = auth.Register(context.Background(), "okname", "not-an-email", "longenough", RequestMeta{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = auth.Register(context.Background(), "okname", "a@b.c", "123", RequestMeta{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Generate("user-1")
	require.NoError(t, err)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.Error(t, err, "expired token")
}
