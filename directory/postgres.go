package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authgate"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getTenantQuery = `
SELECT id, name, disabled
FROM tenants
WHERE id = $1
`

	getUserByUsernameQuery = `
SELECT id, tenant_id, username, password_hash, coalesce(email, ''), coalesce(phone, ''), disabled
FROM users
WHERE tenant_id = $1 AND username = $2
`

	getUserByEmailQuery = `
SELECT id, tenant_id, username, password_hash, coalesce(email, ''), coalesce(phone, ''), disabled
FROM users
WHERE tenant_id = $1 AND lower(email) = $2
`

	getUserByPhoneQuery = `
SELECT id, tenant_id, username, password_hash, coalesce(email, ''), coalesce(phone, ''), disabled
FROM users
WHERE tenant_id = $1 AND phone = $2
`
)

// querier is the subset of pgxpool.Pool the directories use.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ querier = (*pgxpool.Pool)(nil)

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// PostgresTenants reads tenants from a "tenants" table.
type PostgresTenants struct {
	db querier
}

func NewPostgresTenants(pool *pgxpool.Pool) *PostgresTenants {
	return &PostgresTenants{db: pool}
}

func (p *PostgresTenants) GetTenant(ctx context.Context, tenantID string) (authgate.Tenant, error) {
	var (
		t        authgate.Tenant
		disabled bool
	)
	err := p.db.QueryRow(ctx, getTenantQuery, tenantID).Scan(&t.ID, &t.Name, &disabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return authgate.Tenant{}, authgate.ErrTenantNotFound
	}
	if err != nil {
		return authgate.Tenant{}, fmt.Errorf("querying tenant: %w", err)
	}
	if disabled {
		t.Status = authgate.TenantDisabled
	}
	return t, nil
}

// PostgresUsers reads users from a "users" table. Stored phone numbers are
// expected in normalized form.
type PostgresUsers struct {
	db querier
}

func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{db: pool}
}

func (p *PostgresUsers) GetUserByUsername(ctx context.Context, tenantID, username string) (authgate.UserRecord, error) {
	return p.scanUser(p.db.QueryRow(ctx, getUserByUsernameQuery, tenantID, username))
}

func (p *PostgresUsers) GetUserByAddress(ctx context.Context, tenantID string, channel authgate.Channel, address string) (authgate.UserRecord, error) {
	var query string
	switch channel {
	case authgate.ChannelEmail:
		query = getUserByEmailQuery
	case authgate.ChannelPhone:
		query = getUserByPhoneQuery
	default:
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return p.scanUser(p.db.QueryRow(ctx, query, tenantID, channel.Normalize(address)))
}

func (p *PostgresUsers) scanUser(row pgx.Row) (authgate.UserRecord, error) {
	var (
		rec      authgate.UserRecord
		disabled bool
	)
	err := row.Scan(&rec.UserID, &rec.TenantID, &rec.Username, &rec.PasswordHash, &rec.Email, &rec.Phone, &disabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	if err != nil {
		return authgate.UserRecord{}, fmt.Errorf("querying user: %w", err)
	}
	if disabled {
		rec.Status = authgate.UserDisabled
	}
	return rec, nil
}
