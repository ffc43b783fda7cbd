package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process session store keyed by customer identifier.
// Each customer has its own entry lock, so operations on different customers
// never contend; the store-level mutex only guards the entry map. Used for
// development and as the reference implementation in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	mu   sync.Mutex
	sess *Session
}

type MemoryStoreOption func(*MemoryStore)

func WithMemoryTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

func WithMemoryNow(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     InactivityWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// entry returns the customer's entry, creating it when create is set. Reads
// never create an entry, so a Load cannot leave empty entries behind.
func (s *MemoryStore) entry(customerID string, create bool) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[customerID]
	if !ok && create {
		e = &memoryEntry{}
		s.entries[customerID] = e
	}
	return e
}

func (s *MemoryStore) Load(_ context.Context, customerID string) (*Session, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomer
	}
	e := s.entry(customerID, false)
	if e == nil {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || s.expired(e.sess) {
		// Reads after expiry behave as if the session never existed.
		return nil, ErrSessionNotFound
	}
	return cloneSession(e.sess), nil
}

func (s *MemoryStore) AppendTurns(_ context.Context, customerID string, turns ...Turn) error {
	if customerID == "" {
		return ErrInvalidCustomer
	}
	if len(turns) == 0 {
		return nil
	}
	e := s.entry(customerID, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := s.liveSession(e, customerID)
	for _, t := range turns {
		sess.PushTurn(t)
	}
	sess.Touch(s.now())
	e.sess = sess
	return nil
}

func (s *MemoryStore) SetContext(_ context.Context, customerID string, slot ContextSlot) error {
	if customerID == "" {
		return ErrInvalidCustomer
	}
	e := s.entry(customerID, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := s.liveSession(e, customerID)
	sess.Context = slot
	sess.Touch(s.now())
	e.sess = sess
	return nil
}

// liveSession must be called with the entry lock held.
func (s *MemoryStore) liveSession(e *memoryEntry, customerID string) *Session {
	if e.sess == nil || s.expired(e.sess) {
		return NewSession(customerID, s.now())
	}
	return e.sess
}

func (s *MemoryStore) expired(sess *Session) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().UTC().Sub(sess.LastActive) > s.ttl
}

func cloneSession(sess *Session) *Session {
	if sess == nil {
		return nil
	}
	cp := *sess
	cp.History = append([]Turn(nil), sess.History...)
	return &cp
}
