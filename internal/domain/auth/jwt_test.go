package auth

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"ferrex/internal/core/apperror"
)

func TestJWT_Roundtrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, _, err := svc.GenerateAccessToken("admin", "Administrator")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	user, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if user.UserID != "admin" || user.Name != "Administrator" {
		t.Errorf("claims lost: %+v", user)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService(DefaultJWTConfig("secret-a")).GenerateAccessToken("admin", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := NewJWTService(DefaultJWTConfig("secret-b")).ValidateToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	svc := NewService([]Credential{
		{User: "admin", PasswordHash: string(hash), Name: "Administrator"},
	}, NewJWTService(DefaultJWTConfig("test-secret")))
	ctx := context.Background()

	token, err := svc.Login(ctx, "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}

	if _, err := svc.Login(ctx, "admin", "wrong"); !apperror.HasCode(err, apperror.CodeUnauthorized) {
		t.Errorf("wrong password: expected unauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost", "hunter2"); !apperror.HasCode(err, apperror.CodeUnauthorized) {
		t.Errorf("unknown user: expected unauthorized, got %v", err)
	}
}
