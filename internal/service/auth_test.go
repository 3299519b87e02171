package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/pkg/auth"
)

func newAuthService(t *testing.T) (*AuthService, *fakeUsers) {
	t.Helper()
	users := newFakeUsers()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	log := zerolog.Nop()
	return NewAuthService(users, tokens, &log), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	reg, err := svc.Register(context.Background(), dto.RegisterUserRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
		Name:     "Alice",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Token == "" {
		t.Fatalf("expected token after registration")
	}
	if reg.User.PasswordHash == "hunter22" {
		t.Fatalf("password stored in plain text")
	}

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatalf("expected user %d, got %d", reg.User.ID, login.User.ID)
	}
	if login.Token == "" {
		t.Fatalf("expected token after login")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	req := dto.RegisterUserRequest{Email: "bob@example.com", Password: "secret123", Name: "Bob"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	req := dto.RegisterUserRequest{Email: "carol@example.com", Password: "correct-horse", Name: "Carol"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "carol@example.com",
		Password: "battery-staple",
	})
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
