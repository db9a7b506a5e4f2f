package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/account-service/internal/domain"
	"github.com/tazhibayda/account-service/internal/repo"
	"github.com/tazhibayda/account-service/internal/security"
)

type directory interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateResetToken(ctx context.Context, id primitive.ObjectID, token *string, expiresAt *time.Time) error
}

var (
	_ directory = (*repo.Store)(nil)
	_ directory = (*repo.Memory)(nil)
)

// exerciseDirectory runs the behaviour both implementations must share.
func exerciseDirectory(t *testing.T, d directory) {
	t.Helper()
	ctx := context.Background()

	u := &domain.User{Name: "Ann", Email: " Ann@X.com ", Password: "hash"}
	if err := d.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID.IsZero() || u.AuthProvider != domain.ProviderLocal || u.Email != "ann@x.com" {
		t.Fatalf("create did not fill defaults: %+v", u)
	}
	if err := d.CreateUser(ctx, &domain.User{Name: "Dup", Email: "ann@x.com"}); !errors.Is(err, repo.ErrEmailExists) {
		t.Fatalf("duplicate email: %v", err)
	}

	got, err := d.FindUserByEmail(ctx, "ANN@x.com")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("find by email: %v %+v", err, got)
	}
	if got, _ := d.FindUserByEmail(ctx, "nobody@x.com"); got != nil {
		t.Fatalf("unexpected user %+v", got)
	}
	if got, _ := d.FindUserByID(ctx, u.ID.Hex()); got == nil || got.Name != "Ann" {
		t.Fatalf("find by id: %+v", got)
	}
	if got, _ := d.FindUserByID(ctx, "not-an-id"); got != nil {
		t.Fatal("bad id must resolve to nil")
	}

	tok, exp, err := security.NewResetToken(time.Now().UTC(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateResetToken(ctx, u.ID, &tok, &exp); err != nil {
		t.Fatalf("set token: %v", err)
	}
	got, _ = d.FindUserByResetToken(ctx, tok)
	if got == nil || got.ResetPasswordTokenExpired == nil || !got.ResetPasswordTokenExpired.Equal(exp) {
		t.Fatalf("find by token: %+v", got)
	}

	newTok := "def456"
	if err := d.UpdateResetToken(ctx, u.ID, &newTok, &exp); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.FindUserByResetToken(ctx, tok); got != nil {
		t.Fatal("overwritten token still resolves")
	}

	if err := d.UpdateResetToken(ctx, u.ID, nil, nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.FindUserByResetToken(ctx, newTok); got != nil {
		t.Fatal("cleared token still resolves")
	}
	if got, _ := d.FindUserByResetToken(ctx, ""); got != nil {
		t.Fatal("empty token must never match")
	}

	if err := d.UpdatePassword(ctx, u.ID, "hash2"); err != nil {
		t.Fatal(err)
	}
	got, _ = d.FindUserByEmail(ctx, "ann@x.com")
	if got.Password != "hash2" || got.ResetPasswordToken != nil {
		t.Fatalf("after update: %+v", got)
	}

	if err := d.UpdatePassword(ctx, primitive.NewObjectID(), "x"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("update missing user: %v", err)
	}

	g := &domain.User{Name: "G", Email: "g@x.com", AuthProvider: domain.ProviderGoogle}
	if err := d.CreateUser(ctx, g); err != nil {
		t.Fatal(err)
	}
	got, _ = d.FindUserByEmail(ctx, "g@x.com")
	if got.HasPassword() || got.AuthProvider != domain.ProviderGoogle {
		t.Fatalf("google user: %+v", got)
	}
}

func TestMemory_Directory(t *testing.T) {
	exerciseDirectory(t, repo.NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := repo.NewMemory()
	ctx := context.Background()
	u := &domain.User{Name: "Ann", Email: "ann@x.com"}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, _ := m.FindUserByEmail(ctx, "ann@x.com")
	got.Name = "mutated"
	again, _ := m.FindUserByEmail(ctx, "ann@x.com")
	if again.Name != "Ann" {
		t.Fatal("caller mutation leaked into the store")
	}
}
