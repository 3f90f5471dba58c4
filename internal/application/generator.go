package application

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ericfisherdev/passvault/internal/domain/model"
)

// Length bounds offered by the UI. The generator itself only requires
// length >= 1.
const (
	MinUILength      = 6
	MaxUILength      = 30
	DefaultLength    = 12
	MaxRequestLength = 4096
)

// GenerateOptions is a password generation request as submitted by a client.
type GenerateOptions struct {
	Length           int
	IncludeUppercase bool
	IncludeLowercase bool
	IncludeNumbers   bool
	IncludeSymbols   bool
}

// DefaultGenerateOptions returns length 12 with every character class enabled.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Length:           DefaultLength,
		IncludeUppercase: true,
		IncludeLowercase: true,
		IncludeNumbers:   true,
		IncludeSymbols:   true,
	}
}

// Classes converts the include flags to a CharClass set.
func (o GenerateOptions) Classes() model.CharClass {
	var c model.CharClass
	if o.IncludeUppercase {
		c |= model.ClassUpper
	}
	if o.IncludeLowercase {
		c |= model.ClassLower
	}
	if o.IncludeNumbers {
		c |= model.ClassDigits
	}
	if o.IncludeSymbols {
		c |= model.ClassSymbols
	}
	return c
}

// PasswordGenerator draws passwords uniformly from a character-class union
// using a cryptographically secure random source.
type PasswordGenerator struct {
	random io.Reader
}

// NewPasswordGenerator creates a generator backed by crypto/rand.
func NewPasswordGenerator() *PasswordGenerator {
	return &PasswordGenerator{random: rand.Reader}
}

// Generate returns a password of exactly length characters, each drawn
// independently from the union alphabet of classes.
func (g *PasswordGenerator) Generate(length int, classes model.CharClass) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: length must be at least 1, got %d", model.ErrInvalidInput, length)
	}

	alphabet := classes.Alphabet()
	if alphabet == "" {
		return "", fmt.Errorf("%w: no character class selected", model.ErrInvalidInput)
	}

	// rand.Int rejects out-of-range samples, so every index is equally likely.
	size := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(g.random, size)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return b.String(), nil
}
