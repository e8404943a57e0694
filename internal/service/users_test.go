package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/hash"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := env.users.Register(ctx, transport.RegisterRequest{Name: "Jane", Email: "  Jane@Example.com ", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", s.User.Email)
	assert.False(t, s.User.IsAdmin)
	assert.NotEmpty(t, s.Token.Token)

	claims, err := env.users.Tokens.Parse(s.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID.String(), claims.Subject)

	_, err = env.users.Register(ctx, transport.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "654321"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "User already exists", Message(err))
	assert.Equal(t, []string{"user_registered"}, env.events.Types(events.TopicUsers))
}

func TestUserService_Register_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tests := []struct {
		name string
		req  transport.RegisterRequest
	}{
		{name: "empty name", req: transport.RegisterRequest{Email: "a@b.c", Password: "123456"}},
		{name: "empty email", req: transport.RegisterRequest{Name: "a", Password: "123456"}},
		{name: "bad email", req: transport.RegisterRequest{Name: "a", Email: "nope", Password: "123456"}},
		{name: "short password", req: transport.RegisterRequest{Name: "a", Email: "a@b.c", Password: "12345"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "jane@example.com", false)

	s, err := env.users.Login(ctx, transport.LoginRequest{Email: "JANE@example.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", s.User.Email)

	for _, req := range []transport.LoginRequest{
		{Email: "jane@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "123456"},
	} {
		_, err := env.users.Login(ctx, req)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Invalid email or password", Message(err))
	}
}

func TestUserService_LogoutRevokes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "jane@example.com", false)

	s, err := env.users.Login(ctx, transport.LoginRequest{Email: "jane@example.com", Password: "123456"})
	require.NoError(t, err)
	claims, err := env.users.Tokens.Parse(s.Token.Token)
	require.NoError(t, err)

	require.NoError(t, env.users.Logout(ctx, claims))
	require.NoError(t, env.users.Logout(ctx, claims))
	require.NoError(t, env.users.Logout(ctx, nil))

	revoked, err := env.repo.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "jane@example.com", false)
	env.user(t, "john@example.com", false)

	got, err := env.users.UpdateProfile(ctx, u.ID, transport.ProfileRequest{Name: "Jane D", Password: "new-secret"})
	require.NoError(t, err)
	assert.Equal(t, "Jane D", got.Name)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.True(t, hash.CheckPassword(got.PasswordHash, "new-secret"))

	_, err = env.users.UpdateProfile(ctx, u.ID, transport.ProfileRequest{Email: "john@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.users.UpdateProfile(ctx, u.ID, transport.ProfileRequest{Password: "123"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.UpdateProfile(ctx, uuid.New(), transport.ProfileRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_AdminOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin@example.com", true)
	u := env.user(t, "jane@example.com", false)

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	got, err := env.users.UpdateUser(ctx, u.ID, transport.AdminUserRequest{Name: "Jane", Email: "jane@example.com", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	err = env.users.DeleteUser(ctx, admin.ID, admin.ID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Cannot delete yourself", Message(err))

	require.NoError(t, env.users.DeleteUser(ctx, admin.ID, u.ID))
	assert.ErrorIs(t, env.users.DeleteUser(ctx, admin.ID, u.ID), ErrNotFound)
}
