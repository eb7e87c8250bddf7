package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mchtrack/mchtrack/internal/platform/auth"
	"github.com/mchtrack/mchtrack/internal/platform/store"
)

func newTestIdentity(t *testing.T) (*Service, *MemRepo) {
	t.Helper()
	repo := NewMemRepo(store.NewCollection[User]("users", "", zerolog.Nop()))
	return NewService(repo, auth.NewTokenManager("test-secret"), zerolog.Nop()), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "  Nurse@Clinic.org ", "secret123", "Nurse Joy")
	if err != nil {
		t.Fatal(err)
	}
	if session.Token == "" {
		t.Error("expected token on register")
	}
	if session.User.Email != "nurse@clinic.org" {
		t.Errorf("expected normalized email, got %s", session.User.Email)
	}
	if session.User.Role != "user" {
		t.Errorf("expected default role user, got %s", session.User.Role)
	}

	login, err := svc.Login(ctx, "nurse@clinic.org", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if login.User.ID != session.User.ID {
		t.Errorf("login resolved a different user: %s vs %s", login.User.ID, session.User.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		user     string
	}{
		{"bad email", "not-an-email", "secret123", "Nurse Joy"},
		{"short password", "a@b.org", "12345", "Nurse Joy"},
		{"short name", "a@b.org", "secret123", "X"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.email, tc.password, tc.user); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.org", "secret123", "First User"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "A@B.org", "other-password", "Second User")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.org", "secret123", "Test User"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "a@b.org", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "missing@b.org", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	svc, _ := newTestIdentity(t)

	session, err := svc.Register(context.Background(), "a@b.org", "secret123", "Test User")
	if err != nil {
		t.Fatal(err)
	}

	profile, err := svc.Verify(session.Token)
	if err != nil {
		t.Fatal(err)
	}
	if profile.ID != session.User.ID || profile.Email != "a@b.org" || profile.Name != "Test User" {
		t.Errorf("unexpected profile %+v", profile)
	}

	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Error("expected error for garbage token")
	}
}

func TestEnsureDefaultUser(t *testing.T) {
	svc, repo := newTestIdentity(t)
	ctx := context.Background()

	if err := svc.EnsureDefaultUser(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := repo.FindByEmail(ctx, "demo@healthai.com")
	if err != nil {
		t.Fatal(err)
	}
	if first.Role != "admin" {
		t.Errorf("expected admin role, got %s", first.Role)
	}

	// Second call must not create a duplicate or rotate the password.
	if err := svc.EnsureDefaultUser(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := repo.FindByEmail(ctx, "demo@healthai.com")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("default user recreated: %s vs %s", first.ID, second.ID)
	}

	if _, err := svc.Login(ctx, "demo@healthai.com", "password123"); err != nil {
		t.Errorf("demo credentials should log in: %v", err)
	}
}
