package model

import "strings"

// CharClass is a bit set of character classes a generated password may draw from.
type CharClass uint8

const (
	ClassUpper   CharClass = 1 << iota // A-Z
	ClassLower                         // a-z
	ClassDigits                        // 0-9
	ClassSymbols                       // SymbolSet

	ClassAll = ClassUpper | ClassLower | ClassDigits | ClassSymbols
)

// Alphabets for each character class.
const (
	UpperSet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	LowerSet  = "abcdefghijklmnopqrstuvwxyz"
	DigitSet  = "0123456789"
	SymbolSet = "!@#$%^&*()_+~`|}{[]:;?><,./-="
)

var classNames = []struct {
	class CharClass
	name  string
}{
	{ClassUpper, "upper"},
	{ClassLower, "lower"},
	{ClassDigits, "digits"},
	{ClassSymbols, "symbols"},
}

// Has reports whether every class in other is also set in c.
func (c CharClass) Has(other CharClass) bool {
	return c&other == other
}

// Alphabet returns the union of the alphabets of all classes set in c.
// It returns "" when no class is set.
func (c CharClass) Alphabet() string {
	var b strings.Builder
	if c.Has(ClassUpper) {
		b.WriteString(UpperSet)
	}
	if c.Has(ClassLower) {
		b.WriteString(LowerSet)
	}
	if c.Has(ClassDigits) {
		b.WriteString(DigitSet)
	}
	if c.Has(ClassSymbols) {
		b.WriteString(SymbolSet)
	}
	return b.String()
}

// String renders the set as e.g. "upper|digits", or "none".
func (c CharClass) String() string {
	var names []string
	for _, cn := range classNames {
		if c.Has(cn.class) {
			names = append(names, cn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
