package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prepwise/prepwise/internal/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	users := newFakeUserRepo()
	svc := NewAuthService(users)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, "Ada", "Ada@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" {
		t.Fatal("user id not assigned")
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email = %q, want lowercased", u.Email)
	}
	if token == "" {
		t.Fatal("no token issued")
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != u.ID {
		t.Fatalf("token subject = %q, want %q", claims.Subject, u.ID)
	}

	lu, ltoken, err := svc.Login(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if lu.ID != u.ID || ltoken == "" {
		t.Fatalf("login user = %q, token = %q", lu.ID, ltoken)
	}
}

func TestRegisterRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	users := newFakeUserRepo()
	svc := NewAuthService(users)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "", "a@b.c", "hunter22"); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, _, err := svc.Register(ctx, "Ada", "a@b.c", "short"); err == nil {
		t.Fatal("short password accepted")
	}

	if _, _, err := svc.Register(ctx, "Ada", "a@b.c", "hunter22"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, err := svc.Register(ctx, "Ada Again", "a@b.c", "hunter22")
	if err == nil {
		t.Fatal("duplicate email accepted")
	}
	if !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("duplicate email error = %v, want conflict", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	users := newFakeUserRepo()
	svc := NewAuthService(users)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Ada", "a@b.c", "hunter22"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "a@b.c", "wrong-password"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, _, err := svc.Login(ctx, "nobody@b.c", "hunter22"); err == nil {
		t.Fatal("unknown email accepted")
	}

	_, _, err := svc.Login(ctx, "a@b.c", "wrong-password")
	if !utils.IsCode(err, utils.CodeUnauthorized) {
		t.Fatalf("error = %v, want unauthorized", err)
	}
}
