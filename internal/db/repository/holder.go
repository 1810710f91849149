package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/adamscao/certstamp/internal/models"
)

// HolderRepository handles holder and certificate list data access
type HolderRepository struct {
	db *sql.DB
}

// NewHolderRepository creates a new holder repository
func NewHolderRepository(db *sql.DB) *HolderRepository {
	return &HolderRepository{db: db}
}

// Create creates a new holder together with its certificate list
func (r *HolderRepository) Create(ctx context.Context, holder *models.Holder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO holders (holder_id, name) VALUES (?, ?)`, holder.HolderID, holder.Name)
	if isConstraint(err) {
		return fmt.Errorf("holder %s: %w", holder.HolderID, models.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create holder: %w", err)
	}

	for i, cert := range holder.Certificates {
		if err := insertCertificate(ctx, tx, holder.HolderID, cert, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit holder: %w", err)
	}

	holder.CreatedAt = time.Now()

	return nil
}

// AddCertificate appends a certificate to an existing holder's list
func (r *HolderRepository) AddCertificate(ctx context.Context, holderID string, cert models.CertificateEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) > 0 FROM holders WHERE holder_id = ?`, holderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check holder: %w", err)
	}
	if !exists {
		return fmt.Errorf("holder %s: %w", holderID, models.ErrNotFound)
	}

	var next int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM certificates WHERE holder_id = ?`, holderID).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to get next position: %w", err)
	}

	if err := insertCertificate(ctx, tx, holderID, cert, next); err != nil {
		return err
	}

	return tx.Commit()
}

// FindHolder retrieves a holder and its ordered certificate list.
// Returns models.ErrNotFound when the holder does not exist.
func (r *HolderRepository) FindHolder(ctx context.Context, holderID string) (*models.Holder, error) {
	query := `
		SELECT holder_id, name, created_at
		FROM holders
		WHERE holder_id = ?
	`

	holder := &models.Holder{}
	err := r.db.QueryRowContext(ctx, query, holderID).Scan(
		&holder.HolderID,
		&holder.Name,
		&holder.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("holder %s: %w", holderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holder: %w", err)
	}

	certs, err := r.listCertificates(ctx, holderID)
	if err != nil {
		return nil, err
	}
	holder.Certificates = certs

	return holder, nil
}

// List lists all holders with their certificates
func (r *HolderRepository) List(ctx context.Context) ([]*models.Holder, error) {
	query := `
		SELECT holder_id, name, created_at
		FROM holders
		ORDER BY holder_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list holders: %w", err)
	}

	var holders []*models.Holder
	for rows.Next() {
		holder := &models.Holder{}
		if err := rows.Scan(&holder.HolderID, &holder.Name, &holder.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan holder: %w", err)
		}
		holders = append(holders, holder)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list holders: %w", err)
	}
	// release the single connection before the per-holder queries
	rows.Close()

	for _, holder := range holders {
		if holder.Certificates, err = r.listCertificates(ctx, holder.HolderID); err != nil {
			return nil, err
		}
	}

	return holders, nil
}

func (r *HolderRepository) listCertificates(ctx context.Context, holderID string) ([]models.CertificateEntry, error) {
	query := `
		SELECT certificate_id, title, document_location
		FROM certificates
		WHERE holder_id = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	certs := []models.CertificateEntry{}
	for rows.Next() {
		var cert models.CertificateEntry
		if err := rows.Scan(&cert.CertificateID, &cert.Title, &cert.DocumentLocation); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

func insertCertificate(ctx context.Context, tx *sql.Tx, holderID string, cert models.CertificateEntry, position int) error {
	query := `
		INSERT INTO certificates (holder_id, certificate_id, title, document_location, position)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		holderID,
		cert.CertificateID,
		cert.Title,
		cert.DocumentLocation,
		position,
	)
	if isConstraint(err) {
		return fmt.Errorf("certificate %s of holder %s: %w", cert.CertificateID, holderID, models.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create certificate %s: %w", cert.CertificateID, err)
	}

	return nil
}

// isConstraint reports a primary key or unique violation
func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
