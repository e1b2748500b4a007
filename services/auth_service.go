//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"

	"pairchat/auth"
	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/repositories"
)

type IAuthService interface {
	Register(username, password string) (repositories.User, Token, error)
	Login(username, password string) (repositories.User, Token, error)
	Users(exclude chat.UserID) ([]repositories.User, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.Tokens
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.Tokens) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(username, password string) (repositories.User, Token, error) {
	// Business rules first, before any expensive cryptographic work.
	valReq := auth.RegisterRequest{Username: username, Password: password}
	if err := auth.ValidateRegister(valReq); err != nil {
		return repositories.User{}, "", err
	}

	// Hashing happens in the service layer so the repository never sees
	// a plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return repositories.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.Create(username, hashedPassword)
	if err != nil {
		return repositories.User{}, "", err // propagates ErrUserAlreadyExists
	}

	token, err := s.tokens.Generate(user.Identity())
	if err != nil {
		return repositories.User{}, "", errors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

func (s *AuthService) Login(username, password string) (repositories.User, Token, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		// Generic error to prevent account enumeration.
		return repositories.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return repositories.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.Identity())
	if err != nil {
		return repositories.User{}, "", errors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

// Users lists every account except the caller's own.
func (s *AuthService) Users(exclude chat.UserID) ([]repositories.User, error) {
	return s.users.List(exclude)
}
