package application

import (
	"context"
	"testing"
	"time"

	"crewdeck/contexts/identity-access/authentication-service/adapters/memory"
	domainerrors "crewdeck/contexts/identity-access/authentication-service/domain/errors"
)

func newTestService() Service {
	store := memory.NewStore()
	return Service{
		Repo:        store,
		Clock:       store,
		IDGenerator: store,
		SecretKey:   "test-secret",
		TokenTTL:    time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	service := newTestService()

	user, err := service.Register(context.Background(), RegisterInput{
		Email:    "New.Person@Example.com",
		Name:     "New Person",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "new.person@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}

	result, err := service.Login(context.Background(), "new.person@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected token")
	}

	claims, err := service.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if claims.UserID != user.UserID {
		t.Fatalf("expected user %s, got %s", user.UserID, claims.UserID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := newTestService()

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "admin@example.com",
		Name:     "Impostor",
		Password: "whatever-works",
	})
	if err != domainerrors.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	service := newTestService()

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "short@example.com",
		Name:     "Shorty",
		Password: "short",
	})
	if err != domainerrors.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestLoginUnknownUserHidesExistence(t *testing.T) {
	service := newTestService()

	_, err := service.Login(context.Background(), "nobody@example.com", "whatever-works")
	if err != domainerrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service := newTestService()

	_, err := service.Login(context.Background(), "admin@example.com", "wrong-password")
	if err != domainerrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	store := memory.NewStore()
	service := Service{
		Repo:        store,
		Clock:       expiredClock{},
		IDGenerator: store,
		SecretKey:   "test-secret",
		TokenTTL:    time.Minute,
	}

	result, err := service.Login(context.Background(), "admin@example.com", "admin-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), result.Token); err != domainerrors.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	service := newTestService()
	forged := Service{
		Repo:        service.Repo,
		SecretKey:   "another-secret",
		TokenTTL:    time.Hour,
		IDGenerator: service.IDGenerator,
	}

	result, err := forged.Login(context.Background(), "admin@example.com", "admin-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), result.Token); err != domainerrors.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	service := newTestService()

	if err := service.ChangePassword(context.Background(), "user_member_1", "wrong", "brand-new-password"); err != domainerrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), "user_member_1", "member-password", "brand-new-password"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := service.Login(context.Background(), "member@example.com", "brand-new-password"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

// expiredClock issues timestamps far enough in the past that tokens are
// already expired when validated against wall-clock time.
type expiredClock struct{}

func (expiredClock) Now() time.Time {
	return time.Now().UTC().Add(-48 * time.Hour)
}
