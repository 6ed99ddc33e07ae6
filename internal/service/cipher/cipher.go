// Package cipher implements the classical text ciphers offered as activities.
package cipher

import (
	"strings"
	"unicode"

	"github.com/MarvinPescos/balancehub/internal/apperr"
)

// Supported cipher names.
const (
	Atbash   = "atbash"
	Caesar   = "caesar"
	Vigenere = "vigenere"
)

var (
	ErrShiftRange = apperr.Validation("Shift must be between 1 and 25")
	ErrKeyLetters = apperr.Validation("Key must contain at least one letter")
	ErrUnknown    = apperr.Validation("Unsupported cipher type")
)

// EncodeAtbash mirrors each ASCII letter (a<->z, b<->y). Case is kept and
// other runes pass through.
func EncodeAtbash(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune('z' - (r - 'a'))
		case r >= 'A' && r <= 'Z':
			b.WriteRune('Z' - (r - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EncodeCaesar shifts each ASCII letter forward by shift places.
func EncodeCaesar(text string, shift int) (string, error) {
	if shift < 1 || shift > 25 {
		return "", ErrShiftRange
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(shiftRune(r, shift))
	}
	return b.String(), nil
}

// EncodeVigenere shifts each letter by the matching key letter. Non-letters
// in the text do not consume key letters.
func EncodeVigenere(text, key string) (string, error) {
	shifts := keyShifts(key)
	if len(shifts) == 0 {
		return "", ErrKeyLetters
	}
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for _, r := range text {
		if !isASCIILetter(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(shiftRune(r, shifts[i%len(shifts)]))
		i++
	}
	return b.String(), nil
}

// Options selects and parameterises a cipher for Apply.
type Options struct {
	Type  string
	Shift int
	Key   string
}

// Apply runs the cipher named by opts.Type. An empty type returns text unchanged.
func Apply(text string, opts Options) (string, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Type)) {
	case "":
		return text, nil
	case Atbash:
		return EncodeAtbash(text), nil
	case Caesar:
		return EncodeCaesar(text, opts.Shift)
	case Vigenere:
		return EncodeVigenere(text, opts.Key)
	default:
		return "", ErrUnknown
	}
}

func keyShifts(key string) []int {
	shifts := make([]int, 0, len(key))
	for _, r := range strings.ToLower(key) {
		if r >= 'a' && r <= 'z' {
			shifts = append(shifts, int(r-'a'))
		}
	}
	return shifts
}

func shiftRune(r rune, shift int) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return 'a' + (r-'a'+rune(shift))%26
	case r >= 'A' && r <= 'Z':
		return 'A' + (r-'A'+rune(shift))%26
	default:
		return r
	}
}

func isASCIILetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}
