package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/quantonganh/newsletter"
)

// PendingStore keeps pending signups in process memory.
// Records are lost on restart; use the redis store when that matters.
type PendingStore struct {
	mu      sync.Mutex
	records map[string]newsletter.PendingSignup
	now     func() time.Time
}

// NewPendingStore returns an empty store
func NewPendingStore() *PendingStore {
	return &PendingStore{
		records: make(map[string]newsletter.PendingSignup),
		now:     time.Now,
	}
}

// Put stores p under token, replacing any previous record
func (s *PendingStore) Put(_ context.Context, token string, p *newsletter.PendingSignup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, r := range s.records {
		if r.Expired(now) {
			delete(s.records, k)
		}
	}

	s.records[token] = *p
	return nil
}

// Get returns the record stored under token
func (s *PendingStore) Get(_ context.Context, token string) (*newsletter.PendingSignup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[token]
	if !ok {
		return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "inmem.Get", Message: "pending signup not found"}
	}
	if r.Expired(s.now()) {
		delete(s.records, token)
		return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "inmem.Get", Message: "pending signup expired"}
	}

	return &r, nil
}

// Delete removes the record stored under token
func (s *PendingStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, token)
	return nil
}

// Len returns the number of records, expired ones included
func (s *PendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
