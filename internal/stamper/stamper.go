// Package stamper turns a holder's certificate list into stamped PDFs.
package stamper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adamscao/certstamp/internal/fetch"
	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/overlay"
	"github.com/adamscao/certstamp/internal/qrcode"
	"github.com/adamscao/certstamp/internal/signature"
)

// HolderStore looks holders up by id
type HolderStore interface {
	FindHolder(ctx context.Context, holderID string) (*models.Holder, error)
}

// StampLog persists stamping outcomes
type StampLog interface {
	Record(ctx context.Context, stamp *models.StampRecord) error
}

// Options configures a Stamper
type Options struct {
	BaseURL    string
	SystemName string
	Workers    int
	Now        func() time.Time
}

// Outcome describes one stamped certificate
type Outcome struct {
	HolderID      string
	CertificateID string
	Reference     string
	Signature     signature.Signature
	OutputName    string
	Path          string
	Layout        *overlay.Layout
}

// Failure is a certificate that could not be stamped
type Failure struct {
	CertificateID string
	Err           error
}

// Report summarises a batch over one holder
type Report struct {
	HolderID string
	Stamped  []Outcome
	Failed   []Failure
}

// Stamper stamps certificates one unit of work at a time
type Stamper struct {
	store      HolderStore
	fetcher    fetch.Fetcher
	encoder    *qrcode.Encoder
	compositor *overlay.Compositor
	output     *Output
	stamps     StampLog
	logger     *slog.Logger
	opts       Options
}

// New creates a stamper. stamps may be nil when stamping dates are not
// persisted.
func New(
	store HolderStore,
	fetcher fetch.Fetcher,
	encoder *qrcode.Encoder,
	compositor *overlay.Compositor,
	output *Output,
	stamps StampLog,
	logger *slog.Logger,
	opts Options,
) *Stamper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Stamper{
		store:      store,
		fetcher:    fetcher,
		encoder:    encoder,
		compositor: compositor,
		output:     output,
		stamps:     stamps,
		logger:     logger,
		opts:       opts,
	}
}

// StampCertificate stamps a single certificate and writes the result.
// Nothing is written unless both overlays were applied.
func (s *Stamper) StampCertificate(ctx context.Context, rec models.CertificateRecord) (*Outcome, error) {
	ref, err := signature.BuildReference(s.opts.BaseURL, rec.HolderID, rec.CertificateID)
	if err != nil {
		return nil, err
	}

	if rec.DocumentLocation == "" {
		return nil, fmt.Errorf("%w: missing document location", models.ErrFetch)
	}

	sig := signature.Sign(s.opts.SystemName, rec.HolderID, rec.CertificateID, s.opts.Now())

	qrPNG, err := s.encoder.Encode(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	doc, err := s.fetcher.Fetch(ctx, rec.DocumentLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	stamped, layout, err := s.compositor.Apply(doc, qrPNG, sig.Line)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp document: %w", err)
	}

	name := OutputName(rec.CertificateID)
	path, err := s.output.Write(name, stamped)
	if err != nil {
		return nil, err
	}

	if s.stamps != nil {
		record := &models.StampRecord{
			HolderID:      rec.HolderID,
			CertificateID: rec.CertificateID,
			SignDate:      sig.Date,
			Token:         sig.Token,
			OutputName:    name,
		}
		// the document is already out; verification falls back to today
		if err := s.stamps.Record(ctx, record); err != nil {
			s.logger.Warn("failed to record stamp",
				"holder_id", rec.HolderID,
				"certificate_id", rec.CertificateID,
				"error", err)
		}
	}

	return &Outcome{
		HolderID:      rec.HolderID,
		CertificateID: rec.CertificateID,
		Reference:     ref,
		Signature:     sig,
		OutputName:    name,
		Path:          path,
		Layout:        layout,
	}, nil
}

// StampHolder stamps every certificate of a holder. Each certificate is
// an isolated unit: failures are logged and collected in the report while
// the rest of the list carries on. The error return is reserved for the
// holder lookup itself.
func (s *Stamper) StampHolder(ctx context.Context, holderID string) (*Report, error) {
	holder, err := s.store.FindHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}

	return s.StampEntries(ctx, holder), nil
}

// StampEntries runs the batch over an already loaded holder
func (s *Stamper) StampEntries(ctx context.Context, holder *models.Holder) *Report {
	type result struct {
		outcome *Outcome
		err     error
	}

	results := make([]result, len(holder.Certificates))
	seen := make(map[string]bool, len(holder.Certificates))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)

	for i, entry := range holder.Certificates {
		// two entries with one id would race for the same output file
		if seen[entry.CertificateID] {
			results[i].err = fmt.Errorf("%w: duplicate certificate id %q", models.ErrInvalidIdentifier, entry.CertificateID)
			continue
		}
		seen[entry.CertificateID] = true

		if err := ctx.Err(); err != nil {
			results[i].err = err
			continue
		}

		rec := holder.Record(entry)
		g.Go(func() error {
			outcome, err := s.StampCertificate(ctx, rec)
			results[i] = result{outcome: outcome, err: err}
			return nil
		})
	}
	g.Wait()

	report := &Report{HolderID: holder.HolderID}
	for i, r := range results {
		certID := holder.Certificates[i].CertificateID
		if r.err != nil {
			s.logger.Warn("certificate not stamped",
				"holder_id", holder.HolderID,
				"certificate_id", certID,
				"kind", Kind(r.err),
				"error", r.err)
			report.Failed = append(report.Failed, Failure{CertificateID: certID, Err: r.err})
			continue
		}

		s.logger.Info("certificate stamped",
			"holder_id", holder.HolderID,
			"certificate_id", certID,
			"output", r.outcome.Path,
			"token", r.outcome.Signature.Token)
		report.Stamped = append(report.Stamped, *r.outcome)
	}

	return report
}

// Kind names the error kind of err for reporting
func Kind(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, models.ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, models.ErrDocumentUnreadable):
		return "document_unreadable"
	case errors.Is(err, models.ErrRenderingFailed):
		return "rendering_failed"
	case errors.Is(err, models.ErrFetch):
		return "fetch_error"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
