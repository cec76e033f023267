package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"Gin_postgres_redis_tool_issuance/models"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Hour)
	m.now = func() time.Time { return now }

	ama := &models.User{ID: 2, Username: "ama", Role: models.RoleAttendant}
	if err := m.Create(ctx, "s1", ama); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	_ = m.Create(ctx, "s2", ama)
	_ = m.Create(ctx, "s3", &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin})

	got, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.UserID != 2 || got.Username != "ama" || got.IsAdmin() {
		t.Errorf("Expected ama's attendant session, got %+v", got)
	}

	if err := m.RevokeAllForUser(ctx, 2); err != nil {
		t.Fatalf("Failed to revoke: %v", err)
	}
	for _, id := range []string{"s1", "s2"} {
		if _, err := m.Get(ctx, id); !errors.Is(err, ErrNoSession) {
			t.Errorf("%s: expected ErrNoSession after revoke, got %v", id, err)
		}
	}
	admin, err := m.Get(ctx, "s3")
	if err != nil || !admin.IsAdmin() {
		t.Errorf("Expected admin session to survive, got %+v %v", admin, err)
	}

	_ = m.Delete(ctx, "s3")
	if _, err := m.Get(ctx, "s3"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession after delete, got %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Hour)
	m.now = func() time.Time { return now }

	_ = m.Create(ctx, "s1", &models.User{ID: 1})
	now = now.Add(59 * time.Minute)
	if _, err := m.Get(ctx, "s1"); err != nil {
		t.Errorf("Expected session to be alive, got %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "s1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession once expired, got %v", err)
	}
}
