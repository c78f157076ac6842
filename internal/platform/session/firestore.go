package session

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection  = "wizard_sessions"
	defaultMaxAttempts = 5
)

// FirestoreOption customises the FirestoreStore behaviour.
type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the collection name used to store sessions.
func WithCollection(name string) FirestoreOption {
	return func(store *FirestoreStore) {
		if strings.TrimSpace(name) != "" {
			store.collection = strings.TrimSpace(name)
		}
	}
}

// WithMaxAttempts configures the transaction retry attempts.
func WithMaxAttempts(attempts int) FirestoreOption {
	return func(store *FirestoreStore) {
		if attempts > 0 {
			store.maxAttempts = attempts
		}
	}
}

// FirestoreStore implements Store backed by Google Cloud Firestore.
type FirestoreStore struct {
	client      *firestore.Client
	collection  string
	maxAttempts int
}

// NewFirestoreStore constructs a Firestore-backed session store.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	store := &FirestoreStore{
		client:      client,
		collection:  defaultCollection,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Get fetches the session document, treating expired documents as missing.
func (s *FirestoreStore) Get(ctx context.Context, id string, now time.Time) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidID
	}
	now = now.UTC()

	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	var doc sessionDocument
	if err := snap.DataTo(&doc); err != nil {
		return Record{}, err
	}
	if !doc.ExpiresAt.IsZero() && !now.Before(doc.ExpiresAt) {
		return Record{}, ErrNotFound
	}
	return doc.toRecord(snap.Ref.ID), nil
}

// Put writes the payload transactionally, preserving the original creation
// time and refreshing the expiry window.
func (s *FirestoreStore) Put(ctx context.Context, id string, payload []byte, now time.Time, ttl time.Duration) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidID
	}
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	ref := s.client.Collection(s.collection).Doc(id)
	attempts := s.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	payloadCopy := append([]byte(nil), payload...)
	var result Record
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc := sessionDocument{CreatedAt: now}

		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
		} else {
			var existing sessionDocument
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			// Expired documents restart their lifecycle.
			if existing.ExpiresAt.IsZero() || now.Before(existing.ExpiresAt) {
				if !existing.CreatedAt.IsZero() {
					doc.CreatedAt = existing.CreatedAt
				}
			}
		}

		doc.Payload = payloadCopy
		doc.UpdatedAt = now
		doc.ExpiresAt = now.Add(ttl)

		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		result = doc.toRecord(id)
		return nil
	}, firestore.MaxAttempts(attempts))
	if err != nil {
		return Record{}, err
	}
	return result, nil
}

// Delete removes the session document. Missing documents are ignored.
func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidID
	}
	_, err := s.client.Collection(s.collection).Doc(id).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// CleanupExpired removes expired session documents up to the provided limit.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	if limit <= 0 {
		limit = 100
	}

	query := s.client.Collection(s.collection).Where("expires_at", "<=", now).Limit(limit)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := s.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(docs), nil
}

type sessionDocument struct {
	Payload   []byte    `firestore:"payload"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

func (d sessionDocument) toRecord(id string) Record {
	return Record{
		ID:        id,
		Payload:   d.Payload,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
