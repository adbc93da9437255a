package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/authgate"
)

func TestStaticTenants(t *testing.T) {
	tenants, err := NewStaticTenants([]TenantEntry{
		{ID: "t1", Name: "Acme"},
		{ID: "t2", Disabled: true},
	})
	if err != nil {
		t.Fatalf("NewStaticTenants: %v", err)
	}

	got, err := tenants.GetTenant(context.Background(), "t1")
	if err != nil || got.Name != "Acme" || got.Status != authgate.TenantActive {
		t.Fatalf("t1 = %+v, %v", got, err)
	}
	got, err = tenants.GetTenant(context.Background(), "t2")
	if err != nil || got.Status != authgate.TenantDisabled {
		t.Fatalf("t2 = %+v, %v", got, err)
	}
	if _, err := tenants.GetTenant(context.Background(), "t3"); !errors.Is(err, authgate.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestStaticTenantsRejectsBadEntries(t *testing.T) {
	if _, err := NewStaticTenants([]TenantEntry{{ID: " "}}); err == nil {
		t.Fatal("expected error for blank id")
	}
	if _, err := NewStaticTenants([]TenantEntry{{ID: "t1"}, {ID: "t1"}}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestStaticUsersLookups(t *testing.T) {
	users, err := NewStaticUsers([]UserEntry{
		{ID: 1, Tenant: "t1", Username: "alice", PasswordHash: "h1", Email: "Alice@Example.com", Phone: "+1 (555) 010-0100"},
		{ID: 2, Tenant: "t1", Username: "bob", Disabled: true},
		{ID: 3, Tenant: "t2", Username: "alice", Email: "alice@example.com"},
	})
	if err != nil {
		t.Fatalf("NewStaticUsers: %v", err)
	}
	ctx := context.Background()

	rec, err := users.GetUserByUsername(ctx, "t1", "alice")
	if err != nil || rec.UserID != 1 || rec.PasswordHash != "h1" {
		t.Fatalf("alice@t1 = %+v, %v", rec, err)
	}
	rec, err = users.GetUserByUsername(ctx, "t2", "alice")
	if err != nil || rec.UserID != 3 {
		t.Fatalf("alice@t2 = %+v, %v", rec, err)
	}
	rec, err = users.GetUserByUsername(ctx, "t1", "bob")
	if err != nil || rec.Status != authgate.UserDisabled {
		t.Fatalf("bob = %+v, %v", rec, err)
	}
	if _, err := users.GetUserByUsername(ctx, "t3", "alice"); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	rec, err = users.GetUserByAddress(ctx, "t1", authgate.ChannelEmail, " ALICE@example.com")
	if err != nil || rec.UserID != 1 {
		t.Fatalf("email lookup = %+v, %v", rec, err)
	}
	rec, err = users.GetUserByAddress(ctx, "t1", authgate.ChannelPhone, "+15550100100")
	if err != nil || rec.UserID != 1 {
		t.Fatalf("phone lookup = %+v, %v", rec, err)
	}
	if _, err := users.GetUserByAddress(ctx, "t2", authgate.ChannelPhone, "+15550100100"); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound across tenants, got %v", err)
	}
}

func TestStaticUsersRejectsDuplicates(t *testing.T) {
	cases := []struct {
		name    string
		entries []UserEntry
	}{
		{"username", []UserEntry{{ID: 1, Tenant: "t1", Username: "a"}, {ID: 2, Tenant: "t1", Username: "a"}}},
		{"email", []UserEntry{{ID: 1, Tenant: "t1", Username: "a", Email: "x@y.z"}, {ID: 2, Tenant: "t1", Username: "b", Email: "X@Y.Z"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewStaticUsers(tc.entries); !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
		})
	}

	if _, err := NewStaticUsers([]UserEntry{{Tenant: "t1", Username: "a"}}); err == nil {
		t.Fatal("expected error for missing id")
	}
}
