package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how long an idle session survives before cleanup.
const DefaultTTL = 48 * time.Hour

var (
	// ErrNotFound is returned when no live session exists for the given ID.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidID is returned for empty or malformed session IDs.
	ErrInvalidID = errors.New("session: id is required")
)

// Record holds an opaque session payload with its lifecycle timestamps. The
// payload encoding is owned by the caller, the store never inspects it.
type Record struct {
	ID        string
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Store persists session payloads keyed by session ID.
type Store interface {
	Get(ctx context.Context, id string, now time.Time) (Record, error)
	Put(ctx context.Context, id string, payload []byte, now time.Time, ttl time.Duration) (Record, error)
	Delete(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// MemoryStore keeps sessions in process memory. It backs local development
// and tests; production deployments use the Firestore store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns the live record for id, or ErrNotFound when missing or expired.
func (s *MemoryStore) Get(_ context.Context, id string, now time.Time) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidID
	}
	now = now.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
		delete(s.records, id)
		return Record{}, ErrNotFound
	}
	return cloneRecord(record), nil
}

// Put writes the payload under id, refreshing the expiry window.
func (s *MemoryStore) Put(_ context.Context, id string, payload []byte, now time.Time, ttl time.Duration) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidID
	}
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok || (!record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt)) {
		record = Record{ID: id, CreatedAt: now}
	}
	record.Payload = append([]byte(nil), payload...)
	record.UpdatedAt = now
	record.ExpiresAt = now.Add(ttl)
	s.records[id] = record
	return cloneRecord(record), nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// CleanupExpired drops up to limit expired sessions, oldest expiry first.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	if limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []Record
	for _, record := range s.records {
		if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
			expired = append(expired, record)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if len(expired) > limit {
		expired = expired[:limit]
	}
	for _, record := range expired {
		delete(s.records, record.ID)
	}
	return len(expired), nil
}

func cloneRecord(record Record) Record {
	clone := record
	clone.Payload = append([]byte(nil), record.Payload...)
	return clone
}
