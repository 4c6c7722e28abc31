package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"pollbox/config"
	"pollbox/internal/repository/memory"
	pollerrors "pollbox/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		JWTExpiryMin:   60,
		SessionDays:    14,
		MainAdminEmail: "admin@pollbox.local",
	}
}

func TestRegisterCreatesNonAdminProfile(t *testing.T) {
	store := memory.NewStore()
	svc := NewAuthService(store.Users(), testConfig())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Email:    "voter@example.com",
		Name:     "Voter",
		Password: "password123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.User.IsAdmin {
		t.Error("new accounts must not be admins")
	}
	if res.AccessToken == "" || res.SessionID == "" {
		t.Error("registration must open a session")
	}

	userID, err := uuid.Parse(res.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	u, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Profile.UserID != u.ID {
		t.Error("profile must be linked to the user")
	}
	if u.Profile.IsAdmin {
		t.Error("stored profile must be non-admin")
	}
}

func TestRegisterValidatesAllFields(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), testConfig())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Name:     " ",
		Password: "short",
	})
	if !errors.Is(err, pollerrors.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), testConfig())
	ctx := context.Background()

	in := RegisterInput{Email: "dup@example.com", Name: "First", Password: "password123"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, in)
	if !errors.Is(err, pollerrors.ErrAlreadyExists) {
		t.Fatalf("expected already-exists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), testConfig())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Name: "A", Password: "password123"}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong-password"})
	if !errors.Is(err, pollerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Unknown accounts read the same as wrong passwords.
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	if !errors.Is(err, pollerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown account, got %v", err)
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), testConfig())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "t@example.com", Name: "T", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.ParseAccessToken(res.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != res.User.ID || claims.SessionID != res.SessionID {
		t.Errorf("claims do not match issued session: %+v", claims)
	}

	if _, err := svc.ParseAccessToken("not.a.token"); !errors.Is(err, pollerrors.ErrUnauthorized) {
		t.Errorf("garbage token must be unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), testConfig())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "t@example.com", Name: "T", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}
	sessionID := uuid.MustParse(res.SessionID)
	userID := uuid.MustParse(res.User.ID)

	if _, err := svc.ValidateSession(ctx, sessionID, userID); err != nil {
		t.Fatalf("session should validate before logout: %v", err)
	}
	if err := svc.Logout(ctx, sessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateSession(ctx, sessionID, userID); !errors.Is(err, pollerrors.ErrUnauthorized) {
		t.Errorf("revoked session must be unauthorized, got %v", err)
	}
}
