package services

import (
	"fmt"
	"time"

	"mirror/auth"
	"mirror/contract"
	"mirror/errors"
)

// IAuthService is the identity collaborator of the fan-out subsystem:
// it issues opaque bearer credentials and resolves them back to a
// stable identity.
type IAuthService interface {
	Register(username, email, password string) (string, error)
	Login(username, password string) (string, error)
	ResolveIdentity(credential string) (string, error)
}

type AuthService struct {
	users    contract.IUserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users contract.IUserRepository, secret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, secret: secret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(username, email, password string) (string, error) {
	req := auth.RegisterRequest{Username: username, Email: email, Password: password}

	// Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(req); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	if _, err := s.users.CreateUser(username, email, hashed); err != nil {
		return "", err // propagates ErrUserAlreadyExists when the name is taken
	}

	token, err := auth.GenerateToken(username, s.secret, s.tokenTTL)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}

func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.users.GetUser(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(username, s.secret, s.tokenTTL)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}

// ResolveIdentity turns a bearer credential into the identity it was
// issued for. The user must still exist; a token for a deleted account
// is as unauthenticated as a forged one.
func (s *AuthService) ResolveIdentity(credential string) (string, error) {
	username, err := auth.ResolveSubject(credential, s.secret)
	if err != nil {
		return "", err
	}
	if _, err := s.users.GetUser(username); err != nil {
		return "", fmt.Errorf("%w: unknown subject", errors.ErrUnauthenticated)
	}
	return username, nil
}
