package revocation

import (
	"context"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
)

// Store is the durable blacklist: blacklist:{tokenHash} -> tenantID.
type Store struct {
	kv *kv.Store
}

// NewStore creates a blacklist store.
func NewStore(store *kv.Store) *Store {
	return &Store{kv: store}
}

// Key returns the blacklist key for a token hash.
func (s *Store) Key(tokenHash string) string {
	return s.kv.Key("blacklist", tokenHash)
}

// Revoke writes a blacklist entry living for remaining. It reports whether a
// write was made; remaining <= 0 means the token is already dead.
func (s *Store) Revoke(ctx context.Context, tokenHash, tenantID string, remaining time.Duration) (bool, error) {
	if remaining <= 0 {
		return false, nil
	}
	if err := s.kv.Set(ctx, s.Key(tokenHash), tenantID, remaining); err != nil {
		return false, err
	}
	return true, nil
}

// IsRevoked reports whether a live blacklist entry exists.
func (s *Store) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	return s.kv.Exists(ctx, s.Key(tokenHash))
}
