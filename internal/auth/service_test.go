package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store/memory"
)

func TestSignupAndLogin(t *testing.T) {
	jwt := NewJWTService("secret", 1)
	svc := NewService(memory.New(), jwt)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Email: " Ann@Acme.io ", Password: "hunter22", Name: "Ann"})
	require.NoError(t, err)
	require.Equal(t, "ann@acme.io", u.Email)
	require.Equal(t, []models.Role{models.RoleUser}, u.Roles)
	require.NotEqual(t, "hunter22", u.Password)

	_, err = svc.Signup(ctx, SignupInput{Email: "ann@acme.io", Password: "hunter22", Name: "Ann"})
	require.Equal(t, "email_taken", apperr.CodeOf(err))

	_, err = svc.Signup(ctx, SignupInput{Email: "bob@acme.io", Password: "123", Name: "Bob"})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	token, got, err := svc.Login(ctx, "ANN@acme.io", "hunter22")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	claims, err := jwt.Validate(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.NotEmpty(t, claims.ID)

	_, _, err = svc.Login(ctx, "ann@acme.io", "wrong-pass")
	require.Equal(t, "invalid_credentials", apperr.CodeOf(err))
	_, _, err = svc.Login(ctx, "ghost@acme.io", "hunter22")
	require.Equal(t, "invalid_credentials", apperr.CodeOf(err))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, uuid.New())
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTokenExpiry(t *testing.T) {
	jwt := NewJWTService("secret", 1)
	issued := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	jwt.now = func() time.Time { return issued }
	token, err := jwt.Generate(uuid.New(), "ann@acme.io")
	require.NoError(t, err)

	jwt.now = func() time.Time { return issued.Add(30 * time.Minute) }
	_, err = jwt.Validate(token)
	require.NoError(t, err)

	jwt.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = jwt.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTService("other", 1).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDisabledDenylist(t *testing.T) {
	var d *Denylist
	require.NoError(t, d.Revoke(context.Background(), "jti", time.Hour))
	revoked, err := d.Revoked(context.Background(), "jti")
	require.NoError(t, err)
	require.False(t, revoked)

	revoked, err = NewDenylist(nil).Revoked(context.Background(), "jti")
	require.NoError(t, err)
	require.False(t, revoked)
}
