package models

import "errors"

// Error kinds shared by the stamper and the verifier. Callers wrap them
// with context and match with errors.Is.
var (
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrDocumentUnreadable = errors.New("document unreadable")
	ErrRenderingFailed    = errors.New("rendering failed")
	ErrFetch              = errors.New("fetch error")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
)
