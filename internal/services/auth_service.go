package services

import (
	"context"
	"errors"
	"fmt"
	"prompt-library-backend/internal/models"
	"prompt-library-backend/internal/utils"
	"time"
)

var ErrTokenRevoked = errors.New("token has been revoked")

// AuthResult is what signup and login hand back to the client.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type AuthService struct {
	users    *UserService
	tokens   *utils.TokenManager
	denylist *TokenDenylist
}

func NewAuthService(users *UserService, tokens *utils.TokenManager, denylist *TokenDenylist) *AuthService {
	return &AuthService{users: users, tokens: tokens, denylist: denylist}
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	user, err := s.users.RegisterUser(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Verify resolves a bearer token to its user. It fails with
// utils.ErrInvalidToken, ErrTokenRevoked or ErrUserNotFound.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (*models.User, *utils.Claims, error) {
	revoked, err := s.denylist.Contains(ctx, tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("check token status: %w", err)
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout denylists the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenString string, claims *utils.Claims) error {
	return s.denylist.Add(ctx, tokenString, claims.TTLRemaining())
}
