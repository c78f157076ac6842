package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/session"
)

// ErrSessionNotFound indicates no live session exists for the supplied ID.
var ErrSessionNotFound = errors.New("services: session not found")

// ConflictState is raised when finalizing a draft would cross order types.
// It stays pending until the caller resolves it with an explicit decision.
type ConflictState struct {
	Candidate domain.CartItem `json:"candidate"`
	RaisedAt  time.Time       `json:"raisedAt"`
}

// SessionState is everything one client session carries: contact info, the
// wizard snapshot, the cart, upload slots, and any pending cart conflict.
type SessionState struct {
	Contact  *domain.ContactInfo                    `json:"contact,omitempty"`
	Wizard   domain.WizardState                     `json:"wizard"`
	Cart     []domain.CartItem                      `json:"cart,omitempty"`
	Uploads  map[domain.UploadSlot]domain.SlotState `json:"uploads,omitempty"`
	Conflict *ConflictState                         `json:"conflict,omitempty"`
}

// SlotState returns the state of the given upload slot, defaulting to idle.
func (s *SessionState) SlotState(slot domain.UploadSlot) domain.SlotState {
	if s.Uploads == nil {
		return domain.SlotState{Status: domain.SlotIdle}
	}
	state, ok := s.Uploads[slot]
	if !ok {
		return domain.SlotState{Status: domain.SlotIdle}
	}
	return state
}

// SetSlotState records the state of the given upload slot.
func (s *SessionState) SetSlotState(slot domain.UploadSlot, state domain.SlotState) {
	if s.Uploads == nil {
		s.Uploads = make(map[domain.UploadSlot]domain.SlotState)
	}
	s.Uploads[slot] = state
}

// ResetUploads returns every slot to idle, dropping any recorded URLs.
func (s *SessionState) ResetUploads() {
	s.Uploads = nil
}

// StateManager serialises all access to a session's state behind a per-session
// lock, making every cart and wizard operation atomic with respect to
// concurrent requests for the same session.
type StateManager struct {
	store session.Store
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// StateManagerDeps wires the session store behind the manager.
type StateManagerDeps struct {
	Store session.Store
	TTL   time.Duration
	Clock func() time.Time
}

// NewStateManager constructs a StateManager.
func NewStateManager(deps StateManagerDeps) (*StateManager, error) {
	if deps.Store == nil {
		return nil, errors.New("state manager: session store is required")
	}
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &StateManager{
		store: deps.Store,
		ttl:   ttl,
		now:   func() time.Time { return clock().UTC() },
		locks: make(map[string]*sessionLock),
	}, nil
}

// Update loads the session state, applies fn under the session lock, and
// persists the result. fn receives found=false when no live session exists;
// returning an error from fn aborts without persisting.
func (m *StateManager) Update(ctx context.Context, sessionID string, fn func(state *SessionState, found bool) error) (SessionState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return SessionState{}, ErrSessionNotFound
	}

	unlock := m.lock(sessionID)
	defer unlock()

	state, found, err := m.load(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}

	if err := fn(&state, found); err != nil {
		return SessionState{}, err
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return SessionState{}, fmt.Errorf("state manager: encode session %s: %w", sessionID, err)
	}
	if _, err := m.store.Put(ctx, sessionID, payload, m.now(), m.ttl); err != nil {
		return SessionState{}, fmt.Errorf("state manager: persist session %s: %w", sessionID, err)
	}
	return state, nil
}

// View returns a read-only copy of the session state.
func (m *StateManager) View(ctx context.Context, sessionID string) (SessionState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return SessionState{}, ErrSessionNotFound
	}

	unlock := m.lock(sessionID)
	defer unlock()

	state, found, err := m.load(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}
	if !found {
		return SessionState{}, ErrSessionNotFound
	}
	return state, nil
}

// Destroy removes the session entirely.
func (m *StateManager) Destroy(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionNotFound
	}

	unlock := m.lock(sessionID)
	defer unlock()
	return m.store.Delete(ctx, sessionID)
}

func (m *StateManager) load(ctx context.Context, sessionID string) (SessionState, bool, error) {
	record, err := m.store.Get(ctx, sessionID, m.now())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return SessionState{}, false, nil
		}
		return SessionState{}, false, fmt.Errorf("state manager: load session %s: %w", sessionID, err)
	}

	var state SessionState
	if len(record.Payload) > 0 {
		if err := json.Unmarshal(record.Payload, &state); err != nil {
			return SessionState{}, false, fmt.Errorf("state manager: decode session %s: %w", sessionID, err)
		}
	}
	return state, true, nil
}

func (m *StateManager) lock(sessionID string) func() {
	m.mu.Lock()
	entry, ok := m.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	m.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		m.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}
