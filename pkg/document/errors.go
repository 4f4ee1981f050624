package document

import "errors"

var (
	// ErrNotFound is returned when no indexed chunks exist for the document.
	ErrNotFound = errors.New("document not found in index")

	// ErrVerification is returned when chunks for the document remain in
	// the index after deletion. The stored blob is kept so the document can
	// be re-deleted or re-ingested consistently.
	ErrVerification = errors.New("chunks remain in index after deletion")
)
