package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/services"
	"github.com/eventhub-pro/eventhub-api/utils"
)

const testSecret = "test-secret"

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes email and always assigns participant", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := services.NewAuthService(userRepo, testSecret, time.Hour, discardLogger())

		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "alice@example.com" && u.Role == models.RoleParticipant && u.PasswordHash != "secret1"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 7
		}).Return(nil)

		user, err := svc.Register(ctx, services.RegisterInput{
			Name:     "Alice",
			Email:    "  Alice@Example.COM ",
			Password: "secret1",
		})

		require.NoError(t, err)
		assert.Equal(t, 7, user.ID)
		assert.Equal(t, models.RoleParticipant, user.Role)
		assert.True(t, utils.CheckPasswordHash("secret1", user.PasswordHash))
		userRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := services.NewAuthService(userRepo, testSecret, time.Hour, discardLogger())

		userRepo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrUserEmailConflict)

		_, err := svc.Register(ctx, services.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "secret1"})

		assert.ErrorIs(t, err, services.ErrUserEmailConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)

	stored := func() *models.User {
		return &models.User{ID: 3, Name: "Carol", Email: "carol@example.com", PasswordHash: hash, Role: models.RoleParticipant}
	}

	t.Run("success returns a valid token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := services.NewAuthService(userRepo, testSecret, time.Hour, discardLogger())
		userRepo.On("GetByEmail", mock.Anything, "carol@example.com").Return(stored(), nil)

		user, token, err := svc.Login(ctx, services.LoginInput{Email: "Carol@example.com", Password: "secret1"})

		require.NoError(t, err)
		assert.Empty(t, user.PasswordHash)
		claims, err := utils.ParseToken([]byte(testSecret), token)
		require.NoError(t, err)
		assert.Equal(t, 3, claims.UserID)
		assert.Equal(t, models.RoleParticipant, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := services.NewAuthService(userRepo, testSecret, time.Hour, discardLogger())
		userRepo.On("GetByEmail", mock.Anything, "carol@example.com").Return(stored(), nil)

		_, _, err := svc.Login(ctx, services.LoginInput{Email: "carol@example.com", Password: "nope"})

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := services.NewAuthService(userRepo, testSecret, time.Hour, discardLogger())
		userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repositories.ErrUserNotFound)

		_, _, err := svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "secret1"})

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}
