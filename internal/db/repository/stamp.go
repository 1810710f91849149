package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adamscao/certstamp/internal/models"
)

// StampRepository records stamping runs so the verifier can recompute
// tokens with the date they were issued on
type StampRepository struct {
	db *sql.DB
}

// NewStampRepository creates a new stamp repository
func NewStampRepository(db *sql.DB) *StampRepository {
	return &StampRepository{db: db}
}

// Record stores a stamping outcome
func (r *StampRepository) Record(ctx context.Context, stamp *models.StampRecord) error {
	query := `
		INSERT INTO stamps (holder_id, certificate_id, sign_date, token, output_name)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		stamp.HolderID,
		stamp.CertificateID,
		stamp.SignDate,
		stamp.Token,
		stamp.OutputName,
	)
	if err != nil {
		return fmt.Errorf("failed to create stamp record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	stamp.ID = id
	stamp.StampedAt = time.Now()

	return nil
}

// Latest returns the most recent stamp of a certificate.
// Returns models.ErrNotFound when it was never stamped.
func (r *StampRepository) Latest(ctx context.Context, holderID, certificateID string) (*models.StampRecord, error) {
	query := `
		SELECT id, holder_id, certificate_id, sign_date, token, output_name, stamped_at
		FROM stamps
		WHERE holder_id = ? AND certificate_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	stamp := &models.StampRecord{}
	err := r.db.QueryRowContext(ctx, query, holderID, certificateID).Scan(
		&stamp.ID,
		&stamp.HolderID,
		&stamp.CertificateID,
		&stamp.SignDate,
		&stamp.Token,
		&stamp.OutputName,
		&stamp.StampedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stamp %s/%s: %w", holderID, certificateID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stamp: %w", err)
	}

	return stamp, nil
}

// ListByHolder lists stamps of a holder, newest first
func (r *StampRepository) ListByHolder(ctx context.Context, holderID string, limit int) ([]*models.StampRecord, error) {
	query := `
		SELECT id, holder_id, certificate_id, sign_date, token, output_name, stamped_at
		FROM stamps
		WHERE holder_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, holderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stamps: %w", err)
	}
	defer rows.Close()

	var stamps []*models.StampRecord
	for rows.Next() {
		stamp := &models.StampRecord{}
		err := rows.Scan(
			&stamp.ID,
			&stamp.HolderID,
			&stamp.CertificateID,
			&stamp.SignDate,
			&stamp.Token,
			&stamp.OutputName,
			&stamp.StampedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stamp: %w", err)
		}
		stamps = append(stamps, stamp)
	}

	return stamps, rows.Err()
}
