package driven

import "github.com/ericfisherdev/passvault/internal/domain/model"

// Cipher seals and opens secrets under the process-wide vault key.
// Implementations must be safe for concurrent use.
type Cipher interface {
	// Encrypt seals plaintext with a fresh random IV. Two calls with the same
	// plaintext never produce the same SealedSecret.
	Encrypt(plaintext []byte) (model.SealedSecret, error)

	// Decrypt opens a SealedSecret. Any malformed, tampered or foreign input
	// fails with an error wrapping model.ErrDecryptionFailure.
	Decrypt(sealed model.SealedSecret) ([]byte, error)
}
