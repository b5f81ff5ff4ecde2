package services

import (
	"context"
	"prompt-library-backend/internal/database/dbtest"
	"prompt-library-backend/internal/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	store := dbtest.NewStore(t)
	users := NewUserService(store, nil)
	auth := NewAuthService(users, utils.NewTokenManager("test_secret", time.Hour), NewTokenDenylist(nil))
	ctx := context.Background()

	result, err := auth.Signup(ctx, "Jane Smith", "Jane@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "jane@example.com", result.User.Email)
	assert.NotEqual(t, "s3cret-pass", result.User.Password)

	_, err = auth.Signup(ctx, "Jane Again", "jane@example.com", "another")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "jane@example.com", password: "s3cret-pass"},
		{name: "wrong password", email: "jane@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "s3cret-pass", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, got.User.ID)

			user, claims, err := auth.Verify(ctx, got.Token)
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, user.ID)
			assert.Equal(t, result.User.ID, claims.UserID)
		})
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	store := dbtest.NewStore(t)
	client, _ := dbtest.NewRedis(t)
	users := NewUserService(store, client)
	tokens := utils.NewTokenManager("test_secret", time.Hour)
	auth := NewAuthService(users, tokens, NewTokenDenylist(client))
	ctx := context.Background()

	user := dbtest.CreateUser(t, store, "User", "user@example.com")

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := auth.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
	})

	t.Run("foreign signature", func(t *testing.T) {
		foreign, _, err := utils.NewTokenManager("other_secret", time.Hour).GenerateToken(user.ID, user.Role)
		require.NoError(t, err)
		_, _, err = auth.Verify(ctx, foreign)
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		token, _, err := tokens.GenerateToken("ghost", "user")
		require.NoError(t, err)
		_, _, err = auth.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("revoked after logout", func(t *testing.T) {
		token, _, err := tokens.GenerateToken(user.ID, user.Role)
		require.NoError(t, err)

		_, claims, err := auth.Verify(ctx, token)
		require.NoError(t, err)
		require.NoError(t, auth.Logout(ctx, token, claims))

		_, _, err = auth.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestTokenDenylistWithoutRedis(t *testing.T) {
	denylist := NewTokenDenylist(nil)
	ctx := context.Background()

	require.NoError(t, denylist.Add(ctx, "token", time.Minute))
	revoked, err := denylist.Contains(ctx, "token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenDenylistExpires(t *testing.T) {
	client, mr := dbtest.NewRedis(t)
	denylist := NewTokenDenylist(client)
	ctx := context.Background()

	require.NoError(t, denylist.Add(ctx, "token", time.Minute))
	revoked, err := denylist.Contains(ctx, "token")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = denylist.Contains(ctx, "token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestFindUserByIDUsesCache(t *testing.T) {
	store := dbtest.NewStore(t)
	client, mr := dbtest.NewRedis(t)
	users := NewUserService(store, client)
	ctx := context.Background()

	user := dbtest.CreateUser(t, store, "Cached", "cached@example.com")

	got, err := users.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Name)
	assert.True(t, mr.Exists(userCacheKey(user.ID)))

	cached, err := mr.Get(userCacheKey(user.ID))
	require.NoError(t, err)
	assert.NotContains(t, cached, "$2a$", "password hash never reaches the cache")

	// Served from Redis even after the row is gone.
	require.NoError(t, dbtest.MustDB(t, store).Delete(user).Error)
	got, err = users.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = users.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
