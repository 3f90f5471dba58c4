package model

import "time"

// DecryptionErrorMarker is the placeholder shown in place of a password
// whose stored ciphertext could not be decrypted.
const DecryptionErrorMarker = "[Decryption Error]"

// SealedSecret is the at-rest form of a secret: hex-encoded ciphertext and
// the hex-encoded 16-byte IV it was encrypted with.
type SealedSecret struct {
	Ciphertext string
	IV         string
}

// CredentialRecord is one stored secret owned by an account. The plaintext is
// never held here; only the sealed form is persisted.
type CredentialRecord struct {
	ID         string
	AccountID  int64
	Label      string // e.g., "GitHub", trimmed and non-empty
	Ciphertext string
	IV         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Sealed returns the record's ciphertext and IV as a SealedSecret.
func (r CredentialRecord) Sealed() SealedSecret {
	return SealedSecret{Ciphertext: r.Ciphertext, IV: r.IV}
}

// RecordSummary is the externally visible view of a freshly saved record.
// It deliberately carries no ciphertext, IV or plaintext.
type RecordSummary struct {
	ID        string
	Label     string
	CreatedAt time.Time
}

// DecryptedRecord is a transient, decrypted view of a CredentialRecord.
// Exactly one of Plaintext or Err is meaningful: when Err is non-nil the
// record could not be decrypted and Plaintext is empty.
type DecryptedRecord struct {
	ID        string
	Label     string
	Plaintext string
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OK reports whether the record was decrypted successfully.
func (r DecryptedRecord) OK() bool {
	return r.Err == nil
}
