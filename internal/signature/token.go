package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// TokenLength is the number of hex characters kept from the digest
	TokenLength = 10

	// DateLayout is DD-MM-YYYY
	DateLayout = "02-01-2006"
)

// Signature is what gets printed on a stamped page
type Signature struct {
	Date  string `json:"sign_date"`
	Token string `json:"token"`
	Line  string `json:"line"`
}

// BuildToken derives the integrity token for a holder, certificate and date.
// It is an unkeyed truncated SHA-256: anyone who knows the identifiers can
// recompute it.
func BuildToken(holderID, certificateID, date string) string {
	sum := sha256.Sum256([]byte(holderID + "-" + certificateID + "-" + date))
	return hex.EncodeToString(sum[:])[:TokenLength]
}

// FormatSignatureLine renders the human readable signature line
func FormatSignatureLine(system, token, date string) string {
	return fmt.Sprintf("Verified by %s | Sign Date: %s | ID: %s", system, date, token)
}

// DateString formats t in the layout the token is built from
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// Sign builds the full signature for the calendar day of t. The stamper
// and the verifier both go through here.
func Sign(system, holderID, certificateID string, t time.Time) Signature {
	return SignDate(system, holderID, certificateID, DateString(t))
}

// SignDate is Sign with an already formatted date
func SignDate(system, holderID, certificateID, date string) Signature {
	token := BuildToken(holderID, certificateID, date)
	return Signature{
		Date:  date,
		Token: token,
		Line:  FormatSignatureLine(system, token, date),
	}
}
