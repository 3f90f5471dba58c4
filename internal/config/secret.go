package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

const redacted = "[SECRET]"

// SecretKey holds the hex-encoded vault key. It redacts itself under fmt,
// JSON, text encoding, and slog so that logging a Config never leaks it.
type SecretKey string

// String redacts the key for fmt.Print* convenience.
func (s SecretKey) String() string { return redacted }

// Format implements fmt.Formatter so that every verb, %#v included, is redacted.
func (s SecretKey) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts the key in JSON output.
func (s SecretKey) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts the key for text encoders.
func (s SecretKey) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// LogValue implements slog.LogValuer.
func (s SecretKey) LogValue() slog.Value { return slog.StringValue(redacted) }

// Bytes decodes the key. The caller owns the returned slice and should hand
// it to a constructor that wipes it.
func (s SecretKey) Bytes() ([]byte, error) {
	return hex.DecodeString(string(s))
}
