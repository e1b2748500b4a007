package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pairchat/auth"
	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/mocks"
	"pairchat/repositories"
	"pairchat/services"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokens("test-secret", 24*time.Hour)
	svc := services.NewAuthService(mockRepo, tokens)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		username := "alice"
		password := "ComplexPass123!"

		// Expect Create to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			Create(username, gomock.Not(password)).
			Return(repositories.User{ID: 1, Username: username}, nil).
			Times(1)

		user, token, err := svc.Register(username, password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(username, user.Username)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, token, err := svc.Register("alice", "simplepassword")

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			Create("duplicate", gomock.Any()).
			Return(repositories.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register("duplicate", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokens("test-secret", 24*time.Hour)
	svc := services.NewAuthService(mockRepo, tokens)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		username := "alice"
		password := "Secret123456!"

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := repositories.User{
			ID:           42,
			Username:     username,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetByUsername(username).
			Return(storedUser, nil).
			Times(1)

		user, token, err := svc.Login(username, password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(storedUser.ID, user.ID)

		claims, err := tokens.Parse(string(token))
		req.NoError(err)
		req.Equal(int64(42), claims.UserID)
	})

	t.Run("should return invalid credentials when password matches nothing", func(t *testing.T) {
		req := require.New(t)
		username := "alice"

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := repositories.User{
			Username:     username,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetByUsername(username).
			Return(storedUser, nil).
			Times(1)

		_, _, err := svc.Login(username, "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByUsername("unknown").
			Return(repositories.User{}, errors.ErrUserNotFound).
			Times(1)

		_, _, err := svc.Login("unknown", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_Users(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokens("test-secret", 24*time.Hour)
	svc := services.NewAuthService(mockRepo, tokens)

	req := require.New(t)
	stored := []repositories.User{{ID: 2, Username: "bob"}}

	mockRepo.EXPECT().List(chat.UserID(1)).Return(stored, nil).Times(1)

	users, err := svc.Users(1)
	req.NoError(err)
	req.Equal(stored, users)
}
