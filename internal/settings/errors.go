package settings

import "errors"

// Domain errors for the settings package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, settings.ErrKeyNotFound) {
//	    // setting is not in the document
//	}
var (
	// ErrStorageUnavailable is returned when the storage medium cannot be
	// mounted, or the document exists but cannot be opened or read.
	ErrStorageUnavailable = errors.New("settings: storage unavailable")

	// ErrNotFound is returned when the settings document does not exist.
	ErrNotFound = errors.New("settings: document not found")

	// ErrParse is returned when the document is not valid JSON or has no
	// Settings array.
	ErrParse = errors.New("settings: parse error")

	// ErrInvalidDocument is returned when the document parses but violates
	// an invariant (duplicate names, value inconsistent with its type).
	ErrInvalidDocument = errors.New("settings: invalid document")

	// ErrWrite is returned when serialising or writing the document fails.
	ErrWrite = errors.New("settings: write failed")

	// ErrKeyNotFound is returned when no setting has the requested name.
	ErrKeyNotFound = errors.New("settings: key not found")

	// ErrTypeMismatch is returned when the requested type disagrees with the
	// stored value's type.
	ErrTypeMismatch = errors.New("settings: type mismatch")

	// ErrIndexOutOfRange is returned by IndexToName for a bad ordinal.
	ErrIndexOutOfRange = errors.New("settings: index out of range")

	// ErrNotStarted is returned when an accessor is used before Begin.
	ErrNotStarted = errors.New("settings: store not started")
)
