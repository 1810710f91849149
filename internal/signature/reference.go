package signature

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/adamscao/certstamp/internal/models"
)

// ReferencePath is the path segment the verifier serves certificates under
const ReferencePath = "certificate"

// BuildReference builds the verification URL embedded in the QR code:
// <base>/certificate/<holderID>/<certificateID>
func BuildReference(base, holderID, certificateID string) (string, error) {
	if err := ValidateIdentifier(holderID); err != nil {
		return "", fmt.Errorf("holder id: %w", err)
	}
	if err := ValidateIdentifier(certificateID); err != nil {
		return "", fmt.Errorf("certificate id: %w", err)
	}

	return strings.TrimRight(base, "/") + "/" + ReferencePath + "/" + holderID + "/" + certificateID, nil
}

// ParseReference recovers the identifiers from a verification URL
func ParseReference(ref string) (holderID, certificateID string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse reference: %w", err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 || segments[len(segments)-3] != ReferencePath {
		return "", "", fmt.Errorf("%w: reference path %q is not /%s/<holder>/<certificate>",
			models.ErrInvalidIdentifier, u.Path, ReferencePath)
	}

	holderID = segments[len(segments)-2]
	certificateID = segments[len(segments)-1]
	if err := ValidateIdentifier(holderID); err != nil {
		return "", "", fmt.Errorf("holder id: %w", err)
	}
	if err := ValidateIdentifier(certificateID); err != nil {
		return "", "", fmt.Errorf("certificate id: %w", err)
	}

	return holderID, certificateID, nil
}

// ValidateIdentifier rejects identifiers that would make a reference
// ambiguous once embedded in a URL path
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", models.ErrInvalidIdentifier)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %q is a relative path element", models.ErrInvalidIdentifier, id)
	}

	for _, r := range id {
		if strings.ContainsRune(`/\?#%`, r) || unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains %q", models.ErrInvalidIdentifier, id, r)
		}
	}

	return nil
}
