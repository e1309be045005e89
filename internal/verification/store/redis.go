package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"veristay/internal/verification/models"
	"veristay/pkg/platform/sentinel"
)

const sessionKeyPrefix = "session:"

// maxExecuteRetries bounds the optimistic retry loop when concurrent writers
// race on the same session key. Contention on a single user's session is
// rare, so exhausting this means something is looping.
const maxExecuteRetries = 100

// sessionRecord is the wire shape for Redis. The model hides operational
// fields from API responses with json:"-", but the store must round-trip all
// of them, so it carries its own tags.
type sessionRecord struct {
	ID            uuid.UUID  `json:"id"`
	UserID        string     `json:"user_id"`
	State         string     `json:"state"`
	InFlight      bool       `json:"in_flight"`
	DocumentRef   string     `json:"document_ref"`
	ExtractedText string     `json:"extracted_text"`
	Confidence    float64    `json:"confidence"`
	IDFragment    string     `json:"id_fragment"`
	MobileMasked  string     `json:"mobile_masked"`
	AadhaarRef    string     `json:"aadhaar_ref"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int64      `json:"version"`
}

func toRecord(s *models.Session) sessionRecord {
	return sessionRecord{
		ID:            s.ID,
		UserID:        s.UserID,
		State:         string(s.State),
		InFlight:      s.InFlight,
		DocumentRef:   s.DocumentRef,
		ExtractedText: s.ExtractedText,
		Confidence:    s.Confidence,
		IDFragment:    s.IDFragment,
		MobileMasked:  s.MobileMasked,
		AadhaarRef:    s.AadhaarRef,
		VerifiedAt:    s.VerifiedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.Version,
	}
}

func (r sessionRecord) toModel() *models.Session {
	return &models.Session{
		ID:            r.ID,
		UserID:        r.UserID,
		State:         models.State(r.State),
		InFlight:      r.InFlight,
		DocumentRef:   r.DocumentRef,
		ExtractedText: r.ExtractedText,
		Confidence:    r.Confidence,
		IDFragment:    r.IDFragment,
		MobileMasked:  r.MobileMasked,
		AadhaarRef:    r.AadhaarRef,
		VerifiedAt:    r.VerifiedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

// RedisSessionStore shares sessions across instances. Sessions carry a TTL so
// abandoned verifications evict themselves; every write renews it.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs a store with the given session lifetime.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

// Create persists a new session, failing if the key already exists.
func (s *RedisSessionStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(toRecord(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionKey(session.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("setnx session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

// Get returns the session.
func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec.toModel(), nil
}

// Execute applies fn inside a WATCH/MULTI transaction. If another writer
// touches the key between read and write the transaction aborts and the whole
// cycle retries, up to maxExecuteRetries.
func (s *RedisSessionStore) Execute(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionKey(id)

	var result *models.Session
	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var rec sessionRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}

		working := rec.toModel()
		if err := fn(working); err != nil {
			return err
		}
		working.Version = rec.Version + 1

		out, err := json.Marshal(toRecord(working))
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = working
		return nil
	}

	for attempt := 0; attempt < maxExecuteRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, sentinel.ErrConflict
}

// Delete removes the session.
func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("del session: %w", err)
	}
	return nil
}
