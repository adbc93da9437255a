package stores

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
)

const captchaRecordVersionV1 = 1

var (
	// ErrCaptchaIDTaken is returned when a challenge id is already stored.
	ErrCaptchaIDTaken = errors.New("captcha id already in use")
	// ErrCaptchaRecordCorrupt is returned for undecodable records.
	ErrCaptchaRecordCorrupt = errors.New("captcha record corrupt")
)

// CaptchaChallenge is a stored challenge. The answer never leaves the server.
type CaptchaChallenge struct {
	ID        string
	Answer    string
	TenantID  string
	CreatedAt time.Time
}

// CaptchaStore persists challenges under captcha:challenge:{id}.
type CaptchaStore struct {
	store *kv.Store
}

// NewCaptchaStore creates a challenge store.
func NewCaptchaStore(store *kv.Store) *CaptchaStore {
	return &CaptchaStore{store: store}
}

// Key returns the challenge key for id.
func (s *CaptchaStore) Key(id string) string {
	return s.store.Key("captcha:challenge", id)
}

// Save stores a fresh challenge. It never overwrites an existing id.
func (s *CaptchaStore) Save(ctx context.Context, ch CaptchaChallenge, ttl time.Duration) error {
	encoded, err := encodeCaptcha(ch)
	if err != nil {
		return err
	}

	ok, err := s.store.SetNX(ctx, s.Key(ch.ID), string(encoded), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCaptchaIDTaken
	}
	return nil
}

// Consume deletes the challenge and reports whether answer matched it.
// The record is gone after the first call regardless of the outcome.
func (s *CaptchaStore) Consume(ctx context.Context, id, answer string) (*CaptchaChallenge, bool, error) {
	if id == "" {
		return nil, false, nil
	}

	raw, found, err := s.store.Take(ctx, s.Key(id))
	if err != nil || !found {
		return nil, false, err
	}

	ch, err := decodeCaptcha([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	ch.ID = id

	provided := strings.TrimSpace(answer)
	match := subtle.ConstantTimeCompare([]byte(ch.Answer), []byte(provided)) == 1
	return ch, match, nil
}

// version(1) createdAt(8) answerLen(2) answer tenant
func encodeCaptcha(ch CaptchaChallenge) ([]byte, error) {
	if len(ch.Answer) == 0 || len(ch.Answer) > 0xFFFF {
		return nil, fmt.Errorf("%w: invalid answer length", ErrCaptchaRecordCorrupt)
	}

	buf := make([]byte, 0, 11+len(ch.Answer)+len(ch.TenantID))
	buf = append(buf, captchaRecordVersionV1)
	buf = binary.BigEndian.AppendUint64(buf, uint64(ch.CreatedAt.Unix()))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(ch.Answer)))
	buf = append(buf, ch.Answer...)
	buf = append(buf, ch.TenantID...)
	return buf, nil
}

func decodeCaptcha(data []byte) (*CaptchaChallenge, error) {
	if len(data) < 11 || data[0] != captchaRecordVersionV1 {
		return nil, ErrCaptchaRecordCorrupt
	}

	created := int64(binary.BigEndian.Uint64(data[1:9]))
	n := int(binary.BigEndian.Uint16(data[9:11]))
	if len(data) < 11+n {
		return nil, ErrCaptchaRecordCorrupt
	}

	return &CaptchaChallenge{
		Answer:    string(data[11 : 11+n]),
		TenantID:  string(data[11+n:]),
		CreatedAt: time.Unix(created, 0),
	}, nil
}
