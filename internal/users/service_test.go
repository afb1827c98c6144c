package users

import (
	"context"
	"testing"
	"time"

	"github.com/versebook/versebook/internal/models"
)

type fakeRepo struct {
	lastUpsert *models.User
	upsertErr  error
}

func (f *fakeRepo) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	f.lastUpsert = u
	// simulate repository behavior: assign an id and timestamps
	ret := *u
	ret.ID = "abcd1234"
	ret.CreatedAt = time.Now().UTC()
	ret.UpdatedAt = ret.CreatedAt
	return &ret, f.upsertErr
}

func (f *fakeRepo) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return nil, nil
}

func TestUpsertFromClaims(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	claims := map[string]interface{}{
		"sub":     "sub-123",
		"email":   "x@example.com",
		"name":    "X User",
		"picture": "https://img.example.com/x.png",
	}

	u, err := svc.UpsertFromClaims(ctx, claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Sub != "sub-123" {
		t.Fatalf("unexpected sub: %s", u.Sub)
	}
	if u.Email != "x@example.com" {
		t.Fatalf("unexpected email: %s", u.Email)
	}
	if u.Name != "X User" {
		t.Fatalf("unexpected name: %s", u.Name)
	}
	if u.Image != "https://img.example.com/x.png" {
		t.Fatalf("unexpected image: %s", u.Image)
	}
	if repo.lastUpsert == nil {
		t.Fatal("expected repository UpsertBySub to be called")
	}
	if u.ID == "" {
		t.Fatalf("expected returned user to have an ID set by repo")
	}

	// missing sub => no upsert, nil user
	repo.lastUpsert = nil
	u2, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"email": "y@e.com"})
	if err != nil {
		t.Fatalf("unexpected error on missing sub: %v", err)
	}
	if u2 != nil {
		t.Fatalf("expected nil when sub missing, got: %v", u2)
	}
	if repo.lastUpsert != nil {
		t.Fatal("repository should not be called without a sub claim")
	}
}
