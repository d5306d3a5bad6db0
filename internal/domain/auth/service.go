package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"ferrex/internal/core/apperror"
	"ferrex/pkg/logger"
)

// Credential is one configured back-office user: a login name and a
// bcrypt hash of their password. Credentials are loaded at process start.
type Credential struct {
	User         string
	PasswordHash string
	Name         string
}

// Service verifies credentials and issues access tokens.
type Service struct {
	credentials map[string]Credential
	jwt         *JWTService
}

// NewService creates the auth service over the configured credential set.
func NewService(credentials []Credential, jwtService *JWTService) *Service {
	byUser := make(map[string]Credential, len(credentials))
	for _, c := range credentials {
		byUser[c.User] = c
	}
	return &Service{credentials: byUser, jwt: jwtService}
}

// Login verifies the password and returns a signed access token.
func (s *Service) Login(ctx context.Context, user, password string) (string, error) {
	cred, ok := s.credentials[user]
	if !ok {
		// Burn a comparison anyway so missing and wrong users take
		// the same time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return "", apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "failed login attempt", "user", user)
		return "", apperror.NewUnauthorized("invalid credentials")
	}

	token, _, err := s.jwt.GenerateAccessToken(cred.User, cred.Name)
	if err != nil {
		return "", apperror.NewInternal(err)
	}

	return token, nil
}
