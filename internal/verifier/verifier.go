// Package verifier answers verification requests for stamped certificates.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/signature"
)

// HolderStore looks holders up by id
type HolderStore interface {
	FindHolder(ctx context.Context, holderID string) (*models.Holder, error)
}

// StampLog returns the most recent stamp of a certificate
type StampLog interface {
	Latest(ctx context.Context, holderID, certificateID string) (*models.StampRecord, error)
}

// Result is a successful verification
type Result struct {
	Holder      *models.Holder          `json:"-"`
	Certificate models.CertificateEntry `json:"certificate"`
	Reference   string                  `json:"reference"`
	Signature   signature.Signature     `json:"signature"`
	// Stamped reports whether the date came from a recorded stamp
	Stamped bool `json:"stamped"`
}

// Service verifies (holder, certificate) pairs against a record store
type Service struct {
	Store      HolderStore
	Stamps     StampLog // optional
	BaseURL    string
	SystemName string
	DateSource string
	Now        func() time.Time
}

// NewService creates a service using today's date
func NewService(store HolderStore, baseURL, systemName string) *Service {
	return &Service{
		Store:      store,
		BaseURL:    baseURL,
		SystemName: systemName,
		DateSource: config.DateSourceToday,
		Now:        time.Now,
	}
}

// Verify looks the pair up and recomputes its signature.
//
// With the today date source the token only matches the stamped page on
// the day it was stamped. The stamped source uses the recorded date when a
// stamp exists.
func (s *Service) Verify(ctx context.Context, holderID, certificateID string) (*Result, error) {
	ref, err := signature.BuildReference(s.BaseURL, holderID, certificateID)
	if err != nil {
		return nil, err
	}

	holder, err := s.Store.FindHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}

	entry := holder.Certificate(certificateID)
	if entry == nil {
		return nil, fmt.Errorf("certificate %s of holder %s: %w", certificateID, holderID, models.ErrNotFound)
	}

	date, stamped, err := s.signDate(ctx, holderID, certificateID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Holder:      holder,
		Certificate: *entry,
		Reference:   ref,
		Signature:   signature.SignDate(s.SystemName, holderID, certificateID, date),
		Stamped:     stamped,
	}, nil
}

func (s *Service) signDate(ctx context.Context, holderID, certificateID string) (string, bool, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	today := signature.DateString(now())

	if s.DateSource != config.DateSourceStamped || s.Stamps == nil {
		return today, false, nil
	}

	stamp, err := s.Stamps.Latest(ctx, holderID, certificateID)
	if errors.Is(err, models.ErrNotFound) {
		return today, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read stamp log: %w", err)
	}

	return stamp.SignDate, true, nil
}
