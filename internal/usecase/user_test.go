package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

func TestGetProfileSanitizes(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, plainHasher{})
	seedVerifiedUser(t, store, "user-1", "alice@example.com", "secret")

	user, err := svc.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatal("profile must not expose the password hash")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, plainHasher{})

	if _, err := svc.GetProfile(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateSettingsTogglesTwoFactor(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, plainHasher{})
	seedVerifiedUser(t, store, "user-1", "alice@example.com", "secret")

	enabled := true
	user, err := svc.UpdateSettings(context.Background(), "user-1", domain.UserSettings{IsTwoFactorEnabled: &enabled})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !user.IsTwoFactorEnabled {
		t.Fatal("two-factor must be enabled")
	}
	if !store.data.users["user-1"].IsTwoFactorEnabled {
		t.Fatal("the toggle must be persisted")
	}
	if !store.hasAudit("user-1", domain.AuditActionUserSettingsUpdate) {
		t.Fatal("expected a user_settings_update audit entry")
	}
}

func TestUpdateSettingsNilFieldsLeaveStateAlone(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, plainHasher{})
	now := time.Now().UTC()
	seedUser(t, store, domain.User{
		ID:                 "user-1",
		Email:              "alice@example.com",
		PasswordHash:       "hashed:secret",
		IsVerified:         true,
		IsTwoFactorEnabled: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	})

	user, err := svc.UpdateSettings(context.Background(), "user-1", domain.UserSettings{})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !user.IsTwoFactorEnabled {
		t.Fatal("a nil field must not flip the stored value")
	}
}

func TestDeleteAccountRequiresPassword(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, plainHasher{})
	sessions := NewSessionService(store, newTestCodec(t), nil)
	ctx := context.Background()

	seedVerifiedUser(t, store, "user-1", "alice@example.com", "secret")
	if _, _, err := sessions.Create(ctx, "user-1", nil, nil); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if err := svc.DeleteAccount(ctx, "user-1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, ok := store.data.users["user-1"]; !ok {
		t.Fatal("the account must survive a failed re-verification")
	}

	if err := svc.DeleteAccount(ctx, "user-1", "secret"); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, ok := store.data.users["user-1"]; ok {
		t.Fatal("the account must be gone")
	}
	if len(store.data.sessions) != 0 {
		t.Fatal("sessions must cascade with the account")
	}
}

func TestAuditListPaginates(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := domain.AuditEntry{
			ID:        string(rune('a' + i)),
			UserID:    "user-1",
			Action:    domain.AuditActionLogin,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Audit().Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	page, err := svc.ListForUser(ctx, "user-1", 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || page.PageCount != 3 || len(page.Entries) != 2 {
		t.Fatalf("unexpected page shape: total=%d pages=%d entries=%d", page.Total, page.PageCount, len(page.Entries))
	}
	// Newest first.
	if !page.Entries[0].CreatedAt.After(page.Entries[1].CreatedAt) {
		t.Fatal("entries must be ordered newest first")
	}

	last, err := svc.ListForUser(ctx, "user-1", 3, 2)
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	if len(last.Entries) != 1 {
		t.Fatalf("expected 1 entry on the last page, got %d", len(last.Entries))
	}

	empty, err := svc.ListForUser(ctx, "user-1", 4, 2)
	if err != nil {
		t.Fatalf("list past the end: %v", err)
	}
	if len(empty.Entries) != 0 {
		t.Fatal("a page past the end must be empty")
	}
}

func TestAuditListClampsLimit(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(store)
	ctx := context.Background()

	if err := store.Audit().Append(ctx, domain.AuditEntry{
		ID:        "a",
		UserID:    "user-1",
		Action:    domain.AuditActionLogin,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	oversized, err := svc.ListForUser(ctx, "user-1", 1, 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if oversized.Limit != 100 {
		t.Fatalf("expected the limit clamped to 100, got %d", oversized.Limit)
	}

	defaulted, err := svc.ListForUser(ctx, "user-1", 1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if defaulted.Limit != 20 {
		t.Fatalf("expected the default limit 20, got %d", defaulted.Limit)
	}
}
