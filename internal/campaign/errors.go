package campaign

import "errors"

// Error taxonomy for the campaign store. Callers match with errors.Is; the
// store wraps these with context using fmt.Errorf("...: %w", err).
var (
	// ErrValidation means a required field was missing or blank. No state changed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a campaign or entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID means an import collided with an existing campaign id.
	ErrDuplicateID = errors.New("duplicate campaign id")

	// ErrInvalidDocument means an import document was malformed or lacked id/name.
	ErrInvalidDocument = errors.New("invalid campaign document")

	// ErrPersistence means reading or writing the durable store failed.
	ErrPersistence = errors.New("persistence failed")
)
