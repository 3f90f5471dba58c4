// Package vaultcipher implements the vault's encryption at rest: AES-256-CBC
// with a fresh random IV per record, authenticated by an HMAC-SHA256 tag over
// the IV and ciphertext. The key lives in a memguard enclave for the lifetime
// of the process.
package vaultcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"

	"github.com/ericfisherdev/passvault/internal/domain/model"
	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

const (
	// KeySize is the required vault key length in bytes (AES-256).
	KeySize = 32

	// IVSize is the length of the per-record initialization vector.
	IVSize = aes.BlockSize

	tagSize = sha256.Size
	macInfo = "passvault record mac v1"
)

// Compile-time interface satisfaction check.
var _ driven.Cipher = (*Cipher)(nil)

// Cipher seals and opens credential secrets. It holds no mutable state after
// construction and is safe for concurrent use.
type Cipher struct {
	encKey *memguard.Enclave
	macKey *memguard.Enclave
}

// New creates a Cipher from a 32-byte key. New takes ownership of key: the
// slice is wiped on return, whether or not construction succeeds.
// A key of any other length fails with model.ErrConfigurationFailure.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		memguard.WipeBytes(key)
		return nil, fmt.Errorf("%w: encryption key must be %d bytes, got %d",
			model.ErrConfigurationFailure, KeySize, len(key))
	}

	macKey := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(macInfo)), macKey); err != nil {
		memguard.WipeBytes(macKey)
		memguard.WipeBytes(key)
		return nil, fmt.Errorf("%w: derive mac key: %v", model.ErrConfigurationFailure, err)
	}

	return &Cipher{
		encKey: memguard.NewEnclave(key),
		macKey: memguard.NewEnclave(macKey),
	}, nil
}

// GenerateKey returns a fresh random vault key, hex-encoded for use in
// configuration.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	defer memguard.WipeBytes(key)

	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh 16-byte IV. The returned ciphertext is
// hex(AES-256-CBC(plaintext) || tag) and the IV is hex-encoded.
func (c *Cipher) Encrypt(plaintext []byte) (model.SealedSecret, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return model.SealedSecret{}, fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer memguard.WipeBytes(padded)

	ct := make([]byte, len(padded), len(padded)+tagSize)
	err := withKey(c.encKey, func(key []byte) error {
		block, err := aes.NewCipher(key)
		if err != nil {
			return fmt.Errorf("aes.NewCipher: %w", err)
		}
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
		return nil
	})
	if err != nil {
		return model.SealedSecret{}, fmt.Errorf("encrypt: %w", err)
	}

	tag, err := c.tag(iv, ct)
	if err != nil {
		return model.SealedSecret{}, fmt.Errorf("encrypt: %w", err)
	}

	return model.SealedSecret{
		Ciphertext: hex.EncodeToString(append(ct, tag...)),
		IV:         hex.EncodeToString(iv),
	}, nil
}

// Decrypt opens a SealedSecret produced by Encrypt. Malformed encodings, a
// wrong IV, a wrong key or any tampering fail with model.ErrDecryptionFailure;
// the tag is verified before any decryption takes place.
func (c *Cipher) Decrypt(sealed model.SealedSecret) ([]byte, error) {
	iv, err := hex.DecodeString(sealed.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv is not valid hex", model.ErrDecryptionFailure)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", model.ErrDecryptionFailure, IVSize, len(iv))
	}

	data, err := hex.DecodeString(sealed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not valid hex", model.ErrDecryptionFailure)
	}
	if len(data) < aes.BlockSize+tagSize || (len(data)-tagSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext has invalid length %d", model.ErrDecryptionFailure, len(data))
	}

	ct, tag := data[:len(data)-tagSize], data[len(data)-tagSize:]
	want, err := c.tag(iv, ct)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	if !hmac.Equal(tag, want) {
		return nil, fmt.Errorf("%w: authentication failed (wrong key or tampered data)", model.ErrDecryptionFailure)
	}

	padded := make([]byte, len(ct))
	err = withKey(c.encKey, func(key []byte) error {
		block, err := aes.NewCipher(key)
		if err != nil {
			return fmt.Errorf("aes.NewCipher: %w", err)
		}
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		memguard.WipeBytes(padded)
		return nil, fmt.Errorf("%w: %v", model.ErrDecryptionFailure, err)
	}
	return plaintext, nil
}

// tag computes HMAC-SHA256(macKey, iv || ct).
func (c *Cipher) tag(iv, ct []byte) ([]byte, error) {
	var sum []byte
	err := withKey(c.macKey, func(key []byte) error {
		mac := hmac.New(sha256.New, key)
		mac.Write(iv)
		mac.Write(ct)
		sum = mac.Sum(nil)
		return nil
	})
	return sum, err
}

// withKey opens an enclave for the duration of fn and destroys the plaintext
// buffer afterwards.
func withKey(e *memguard.Enclave, fn func(key []byte) error) error {
	buf, err := e.Open()
	if err != nil {
		return fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}
