package services_test

import (
	"context"
	"testing"

	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, &services.RegisterInput{
		Name:     " Alice ",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, domain.RoleStudent, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, err = f.auth.Register(ctx, &services.RegisterInput{
		Name:     "Alice again",
		Email:    "alice@example.com ",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)

	_, err = f.auth.Register(ctx, &services.RegisterInput{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "secret123",
		Role:     "admin",
	})
	assert.ErrorIs(t, err, services.ErrInvalidRole)
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "bob", domain.RoleInstructor)

	resp, err := f.auth.Login(ctx, &services.LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, resp.User.Role)

	_, err = f.auth.Login(ctx, &services.LoginInput{Email: user.Email, Password: "wrong"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &services.LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_BlockedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin", domain.RoleAdmin)
	user := testutil.CreateUser(t, f.db, "carol", domain.RoleStudent)

	session, err := f.auth.Login(ctx, &services.LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	_, err = f.users.SetStatus(ctx, admin.ID, user.ID, domain.UserBlocked)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, &services.LoginInput{Email: user.Email, Password: "password123"})
	assert.ErrorIs(t, err, services.ErrUserBlocked)

	// blocking revoked the refresh token
	_, err = f.auth.RefreshToken(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, services.ErrTokenRevoked)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "dave", domain.RoleStudent)

	first, err := f.auth.Login(ctx, &services.LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	second, err := f.auth.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, services.ErrTokenRevoked)

	_, err = f.auth.RefreshToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	require.NoError(t, f.auth.Logout(ctx, second.RefreshToken))
	_, err = f.auth.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, services.ErrTokenRevoked)
}

func TestUserService_AdminControls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin", domain.RoleAdmin)
	user := testutil.CreateUser(t, f.db, "erin", domain.RoleStudent)

	_, err := f.users.SetRole(ctx, admin.ID, admin.ID, domain.RoleStudent)
	assert.ErrorIs(t, err, services.ErrCannotModifySelf)

	_, err = f.users.SetRole(ctx, admin.ID, user.ID, domain.Role("owner"))
	assert.ErrorIs(t, err, services.ErrUnknownRole)

	updated, err := f.users.SetRole(ctx, admin.ID, user.ID, domain.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, updated.Role)

	_, err = f.users.SetStatus(ctx, admin.ID, user.ID, domain.UserStatus("frozen"))
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	_, err = f.users.SetStatus(ctx, admin.ID, 9999, domain.UserBlocked)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
