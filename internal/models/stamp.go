package models

import "time"

// StampRecord records the outcome of stamping one certificate
type StampRecord struct {
	ID            int64     `json:"id"`
	HolderID      string    `json:"holder_id"`
	CertificateID string    `json:"certificate_id"`
	SignDate      string    `json:"sign_date"` // DD-MM-YYYY
	Token         string    `json:"token"`
	OutputName    string    `json:"output_name"`
	StampedAt     time.Time `json:"stamped_at"`
}
