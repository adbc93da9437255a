package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/authgate"
	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *int64:
			*p = r.values[i].(int64)
		case *bool:
			*p = r.values[i].(bool)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	row      fakeRow
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return q.row
}

func TestPostgresTenants(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{"t1", "Acme", true}}}
	p := &PostgresTenants{db: q}

	got, err := p.GetTenant(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if got.ID != "t1" || got.Name != "Acme" || got.Status != authgate.TenantDisabled {
		t.Fatalf("unexpected tenant %+v", got)
	}
	if q.lastArgs[0] != "t1" {
		t.Fatalf("unexpected args %v", q.lastArgs)
	}

	q.row = fakeRow{err: pgx.ErrNoRows}
	if _, err := p.GetTenant(context.Background(), "t9"); !errors.Is(err, authgate.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	boom := errors.New("connection reset")
	q.row = fakeRow{err: boom}
	_, err = p.GetTenant(context.Background(), "t1")
	if !errors.Is(err, boom) || errors.Is(err, authgate.ErrTenantNotFound) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestPostgresUsers(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{int64(7), "t1", "alice", "hash", "alice@example.com", "+15550100", false}}}
	p := &PostgresUsers{db: q}
	ctx := context.Background()

	rec, err := p.GetUserByUsername(ctx, "t1", "alice")
	if err != nil || rec.UserID != 7 || rec.Status != authgate.UserActive {
		t.Fatalf("GetUserByUsername = %+v, %v", rec, err)
	}
	if q.lastSQL != getUserByUsernameQuery {
		t.Fatal("username lookup used the wrong query")
	}

	if _, err := p.GetUserByAddress(ctx, "t1", authgate.ChannelEmail, "Alice@Example.com"); err != nil {
		t.Fatalf("GetUserByAddress(email): %v", err)
	}
	if q.lastSQL != getUserByEmailQuery || q.lastArgs[1] != "alice@example.com" {
		t.Fatalf("email lookup: %q %v", q.lastSQL, q.lastArgs)
	}

	if _, err := p.GetUserByAddress(ctx, "t1", authgate.ChannelPhone, "+1 555-0100"); err != nil {
		t.Fatalf("GetUserByAddress(phone): %v", err)
	}
	if q.lastSQL != getUserByPhoneQuery || q.lastArgs[1] != "+15550100" {
		t.Fatalf("phone lookup: %q %v", q.lastSQL, q.lastArgs)
	}

	q.row = fakeRow{err: pgx.ErrNoRows}
	if _, err := p.GetUserByUsername(ctx, "t1", "ghost"); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := p.GetUserByAddress(ctx, "t1", authgate.Channel("fax"), "1"); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown channel, got %v", err)
	}
}
