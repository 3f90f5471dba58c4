package model

import "errors"

// Error kinds shared across the vault. Adapters and services wrap these with
// context; callers classify with errors.Is or the helpers below.
var (
	// ErrInvalidInput indicates a caller-correctable request: bad length, empty
	// label or plaintext, or no character class selected.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecryptionFailure indicates stored data could not be decrypted with the
	// configured key. The data is unusable; it is never an empty-string success.
	ErrDecryptionFailure = errors.New("decryption failure")

	// ErrNotFound is used both for missing records and for records owned by
	// another principal, so callers cannot discover foreign records.
	ErrNotFound = errors.New("not found")

	// ErrConfigurationFailure indicates a missing or malformed encryption key.
	// It is only produced at startup.
	ErrConfigurationFailure = errors.New("configuration failure")
)

// IsInvalidInput returns true if err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsDecryptionFailure returns true if err is or wraps ErrDecryptionFailure.
func IsDecryptionFailure(err error) bool {
	return errors.Is(err, ErrDecryptionFailure)
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfigurationFailure returns true if err is or wraps ErrConfigurationFailure.
func IsConfigurationFailure(err error) bool {
	return errors.Is(err, ErrConfigurationFailure)
}
