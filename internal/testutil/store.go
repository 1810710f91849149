package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adamscao/certstamp/internal/models"
)

// MemoryStore is an in-memory holder store and stamp log
type MemoryStore struct {
	mu      sync.Mutex
	holders map[string]*models.Holder
	stamps  []*models.StampRecord

	// FindErr, when set, is returned by every FindHolder call
	FindErr error
}

// NewMemoryStore returns a store seeded with holders
func NewMemoryStore(holders ...*models.Holder) *MemoryStore {
	s := &MemoryStore{holders: make(map[string]*models.Holder)}
	for _, h := range holders {
		s.holders[h.HolderID] = h
	}
	return s
}

// FindHolder returns a copy of the holder
func (s *MemoryStore) FindHolder(ctx context.Context, holderID string) (*models.Holder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindErr != nil {
		return nil, s.FindErr
	}

	h, ok := s.holders[holderID]
	if !ok {
		return nil, fmt.Errorf("holder %s: %w", holderID, models.ErrNotFound)
	}

	clone := *h
	clone.Certificates = append([]models.CertificateEntry(nil), h.Certificates...)
	return &clone, nil
}

// Record appends a stamp
func (s *MemoryStore) Record(ctx context.Context, stamp *models.StampRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stamp.StampedAt.IsZero() {
		stamp.StampedAt = time.Now()
	}
	stamp.ID = int64(len(s.stamps) + 1)
	rec := *stamp
	s.stamps = append(s.stamps, &rec)
	return nil
}

// Latest returns the most recent stamp for a certificate
func (s *MemoryStore) Latest(ctx context.Context, holderID, certificateID string) (*models.StampRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.stamps) - 1; i >= 0; i-- {
		st := s.stamps[i]
		if st.HolderID == holderID && st.CertificateID == certificateID {
			rec := *st
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("stamp %s/%s: %w", holderID, certificateID, models.ErrNotFound)
}

// Stamps returns everything recorded so far
func (s *MemoryStore) Stamps() []models.StampRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.StampRecord, 0, len(s.stamps))
	for _, st := range s.stamps {
		out = append(out, *st)
	}
	return out
}
