package models

import "time"

// Holder represents the person certificates were issued to
type Holder struct {
	HolderID     string             `json:"holder_id" bson:"apaarID"`
	Name         string             `json:"name,omitempty" bson:"name,omitempty"`
	Certificates []CertificateEntry `json:"certificates" bson:"certificates"`
	CreatedAt    time.Time          `json:"created_at" bson:"-"`
}

// CertificateEntry is one certificate in a holder's list
type CertificateEntry struct {
	CertificateID    string `json:"certificate_id" bson:"certificateId"`
	Title            string `json:"title,omitempty" bson:"title,omitempty"`
	DocumentLocation string `json:"document_location,omitempty" bson:"fileUrl,omitempty"`
}

// CertificateRecord identifies one issued certificate and where its
// unstamped document lives
type CertificateRecord struct {
	HolderID         string `json:"holder_id"`
	CertificateID    string `json:"certificate_id"`
	DocumentLocation string `json:"document_location,omitempty"`
}

// Certificate returns the entry with the given id, or nil
func (h *Holder) Certificate(certificateID string) *CertificateEntry {
	for i := range h.Certificates {
		if h.Certificates[i].CertificateID == certificateID {
			return &h.Certificates[i]
		}
	}
	return nil
}

// Record flattens a holder's entry into a CertificateRecord
func (h *Holder) Record(entry CertificateEntry) CertificateRecord {
	return CertificateRecord{
		HolderID:         h.HolderID,
		CertificateID:    entry.CertificateID,
		DocumentLocation: entry.DocumentLocation,
	}
}
