package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authgate"
)

var ErrDuplicate = errors.New("directory: duplicate entry")

// TenantEntry is one configured tenant.
type TenantEntry struct {
	ID       string `yaml:"id" toml:"id"`
	Name     string `yaml:"name" toml:"name"`
	Disabled bool   `yaml:"disabled" toml:"disabled"`
}

// UserEntry is one configured user. PasswordHash is an argon2id PHC string.
type UserEntry struct {
	ID           int64  `yaml:"id" toml:"id"`
	Tenant       string `yaml:"tenant" toml:"tenant"`
	Username     string `yaml:"username" toml:"username"`
	PasswordHash string `yaml:"password_hash" toml:"password_hash"`
	Email        string `yaml:"email" toml:"email"`
	Phone        string `yaml:"phone" toml:"phone"`
	Disabled     bool   `yaml:"disabled" toml:"disabled"`
}

// StaticTenants is an immutable in-memory tenant list.
type StaticTenants struct {
	byID map[string]authgate.Tenant
}

func NewStaticTenants(entries []TenantEntry) (*StaticTenants, error) {
	s := &StaticTenants{byID: make(map[string]authgate.Tenant, len(entries))}
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("directory: tenant %d has no id", i)
		}
		if _, ok := s.byID[id]; ok {
			return nil, fmt.Errorf("%w: tenant %q", ErrDuplicate, id)
		}
		status := authgate.TenantActive
		if e.Disabled {
			status = authgate.TenantDisabled
		}
		s.byID[id] = authgate.Tenant{ID: id, Name: e.Name, Status: status}
	}
	return s, nil
}

func (s *StaticTenants) GetTenant(_ context.Context, tenantID string) (authgate.Tenant, error) {
	t, ok := s.byID[tenantID]
	if !ok {
		return authgate.Tenant{}, authgate.ErrTenantNotFound
	}
	return t, nil
}

type userKey struct {
	tenant string
	name   string
}

type addressKey struct {
	tenant  string
	channel authgate.Channel
	address string
}

// StaticUsers is an immutable in-memory user list. Usernames are unique per
// tenant, and so are normalized addresses.
type StaticUsers struct {
	byName    map[userKey]authgate.UserRecord
	byAddress map[addressKey]authgate.UserRecord
}

func NewStaticUsers(entries []UserEntry) (*StaticUsers, error) {
	s := &StaticUsers{
		byName:    make(map[userKey]authgate.UserRecord, len(entries)),
		byAddress: make(map[addressKey]authgate.UserRecord, len(entries)),
	}
	for i, e := range entries {
		if e.ID <= 0 || strings.TrimSpace(e.Tenant) == "" || strings.TrimSpace(e.Username) == "" {
			return nil, fmt.Errorf("directory: user %d needs id, tenant and username", i)
		}
		rec := authgate.UserRecord{
			UserID:       e.ID,
			TenantID:     strings.TrimSpace(e.Tenant),
			Username:     strings.TrimSpace(e.Username),
			PasswordHash: e.PasswordHash,
			Email:        authgate.ChannelEmail.Normalize(e.Email),
			Phone:        authgate.ChannelPhone.Normalize(e.Phone),
		}
		if e.Disabled {
			rec.Status = authgate.UserDisabled
		}

		nk := userKey{tenant: rec.TenantID, name: rec.Username}
		if _, ok := s.byName[nk]; ok {
			return nil, fmt.Errorf("%w: user %q in tenant %q", ErrDuplicate, rec.Username, rec.TenantID)
		}
		s.byName[nk] = rec

		for _, a := range []addressKey{
			{tenant: rec.TenantID, channel: authgate.ChannelEmail, address: rec.Email},
			{tenant: rec.TenantID, channel: authgate.ChannelPhone, address: rec.Phone},
		} {
			if a.address == "" {
				continue
			}
			if _, ok := s.byAddress[a]; ok {
				return nil, fmt.Errorf("%w: %s %q in tenant %q", ErrDuplicate, a.channel, a.address, rec.TenantID)
			}
			s.byAddress[a] = rec
		}
	}
	return s, nil
}

func (s *StaticUsers) GetUserByUsername(_ context.Context, tenantID, username string) (authgate.UserRecord, error) {
	rec, ok := s.byName[userKey{tenant: tenantID, name: username}]
	if !ok {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return rec, nil
}

func (s *StaticUsers) GetUserByAddress(_ context.Context, tenantID string, channel authgate.Channel, address string) (authgate.UserRecord, error) {
	rec, ok := s.byAddress[addressKey{tenant: tenantID, channel: channel, address: channel.Normalize(address)}]
	if !ok {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return rec, nil
}
