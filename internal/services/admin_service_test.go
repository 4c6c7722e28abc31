package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"
	"pollbox/internal/repository/memory"
	pollerrors "pollbox/pkg/errors"
)

func newAdminFixture(t *testing.T) (*memory.Store, *AdminService) {
	t.Helper()
	store := memory.NewStore()
	svc := NewAdminService(store.Users(), store.Questions(), store.Votes(), "admin@pollbox.local")
	return store, svc
}

func createUser(t *testing.T, store *memory.Store, email string, isAdmin bool) user.User {
	t.Helper()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "User",
		PasswordHash: "x",
		Profile:      user.Profile{IsAdmin: isAdmin},
	}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return *u
}

func TestMainAdminRecognizedByEmail(t *testing.T) {
	store, svc := newAdminFixture(t)

	// Profile flag says non-admin; the pinned email wins anyway.
	main := createUser(t, store, "admin@pollbox.local", false)
	if !svc.IsMainAdmin(main) || !svc.IsAdmin(main) {
		t.Error("main admin email must grant admin standing")
	}

	regular := createUser(t, store, "user@example.com", false)
	if svc.IsAdmin(regular) {
		t.Error("regular users are not admins")
	}
}

func TestRequireAdmin(t *testing.T) {
	store, svc := newAdminFixture(t)
	admin := createUser(t, store, "boss@example.com", true)
	regular := createUser(t, store, "pleb@example.com", false)

	ctx := WithUserSessionContext(context.Background(), admin.ID, uuid.New())
	if _, err := svc.RequireAdmin(ctx); err != nil {
		t.Errorf("admin should pass: %v", err)
	}

	ctx = WithUserSessionContext(context.Background(), regular.ID, uuid.New())
	if _, err := svc.RequireAdmin(ctx); !errors.Is(err, pollerrors.ErrForbidden) {
		t.Errorf("non-admin should be forbidden, got %v", err)
	}

	if _, err := svc.RequireAdmin(context.Background()); !errors.Is(err, pollerrors.ErrUnauthorized) {
		t.Errorf("anonymous should be unauthorized, got %v", err)
	}
}

func TestGrantAndRevokeAdmin(t *testing.T) {
	store, svc := newAdminFixture(t)
	target := createUser(t, store, "promote@example.com", false)
	ctx := context.Background()

	info, err := svc.GrantAdmin(ctx, "promote@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsAdmin {
		t.Error("grant must mark the user admin")
	}
	u, err := store.Users().GetByID(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Profile.IsAdmin {
		t.Error("grant must persist")
	}

	info, err = svc.RevokeAdmin(ctx, "promote@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if info.IsAdmin {
		t.Error("revoke must clear the admin flag")
	}
}

func TestRevokeMainAdminRefused(t *testing.T) {
	store, svc := newAdminFixture(t)
	createUser(t, store, "admin@pollbox.local", true)

	_, err := svc.RevokeAdmin(context.Background(), "admin@pollbox.local")
	if !errors.Is(err, pollerrors.ErrForbidden) {
		t.Fatalf("demoting the main admin must be forbidden, got %v", err)
	}

	u, err := store.Users().GetByEmail(context.Background(), "admin@pollbox.local")
	if err != nil {
		t.Fatal(err)
	}
	if !u.Profile.IsAdmin {
		t.Error("main admin flag must be untouched")
	}
}

func TestGrantAdminUnknownUser(t *testing.T) {
	_, svc := newAdminFixture(t)

	_, err := svc.GrantAdmin(context.Background(), "ghost@example.com")
	if !errors.Is(err, pollerrors.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestStats(t *testing.T) {
	store, svc := newAdminFixture(t)
	ctx := context.Background()

	createUser(t, store, "admin@pollbox.local", true)
	voter := createUser(t, store, "voter@example.com", false)

	q := &poll.Question{
		QuestionText: "q",
		PubDate:      time.Now().Add(-time.Hour),
		Choices:      []poll.Choice{{ChoiceText: "a"}},
	}
	if err := store.Questions().Create(ctx, q); err != nil {
		t.Fatal(err)
	}
	hidden := &poll.Question{QuestionText: "empty", PubDate: time.Now().Add(time.Hour)}
	if err := store.Questions().Create(ctx, hidden); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Votes().ReplaceAll(ctx, voter.ID, map[uint]uint{q.ID: q.Choices[0].ID}); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalQuestions != 2 || stats.TotalVotes != 1 || stats.TotalVoters != 1 {
		t.Errorf("stats: %+v", stats)
	}
	if stats.UnpublishedCount != 1 || stats.ChoicelessCount != 1 || stats.HiddenFromPublic != 1 {
		t.Errorf("hidden counts: %+v", stats)
	}
	if stats.TotalAdmins != 1 {
		t.Errorf("expected 1 admin, got %d", stats.TotalAdmins)
	}
}
