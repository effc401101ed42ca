package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	letterChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	// ambiguousChars are left out of every alphabet because they are easy to misread.
	ambiguousChars = "O0l1I"

	MinLength     = 4
	MaxLength     = 128
	DefaultLength = 12
)

var (
	ErrInvalidLength   = errors.New("invalid password length")
	ErrNoClassSelected = errors.New("at least one character class must be selected")
	ErrEmptyAlphabet   = errors.New("no characters available for password generation")
)

// Class is a named character category with a fixed alphabet.
type Class int

const (
	Letters Class = iota
	Digits
	Special
)

// String returns the human readable class name.
func (c Class) String() string {
	switch c {
	case Letters:
		return "letters"
	case Digits:
		return "digits"
	case Special:
		return "special"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Alphabet returns the characters of the class with ambiguous glyphs removed.
func (c Class) Alphabet() string {
	switch c {
	case Letters:
		return withoutAmbiguous(letterChars)
	case Digits:
		return withoutAmbiguous(digitChars)
	case Special:
		return withoutAmbiguous(specialChars)
	default:
		return ""
	}
}

// IsSpecial reports whether r belongs to the special character alphabet.
func IsSpecial(r rune) bool {
	return strings.ContainsRune(specialChars, r)
}

// GeneratorOptions configures the password generator.
type GeneratorOptions struct {
	Length  int
	Letters bool
	Digits  bool
	Special bool
}

// DefaultOptions returns the defaults: 12 characters with every class enabled.
func DefaultOptions() GeneratorOptions {
	return GeneratorOptions{
		Length:  DefaultLength,
		Letters: true,
		Digits:  true,
		Special: true,
	}
}

// Classes returns the enabled classes in canonical order.
func (o GeneratorOptions) Classes() []Class {
	var classes []Class
	if o.Letters {
		classes = append(classes, Letters)
	}
	if o.Digits {
		classes = append(classes, Digits)
	}
	if o.Special {
		classes = append(classes, Special)
	}
	return classes
}

// Generate creates a cryptographically secure random password based on the given options.
// The result holds at least one character of every enabled class and never
// contains any of "O0l1I".
func Generate(opts GeneratorOptions) (string, error) {
	if opts.Length < MinLength {
		return "", fmt.Errorf("%w: must be at least %d characters", ErrInvalidLength, MinLength)
	}
	if opts.Length > MaxLength {
		return "", fmt.Errorf("%w: must be no more than %d characters", ErrInvalidLength, MaxLength)
	}

	classes := opts.Classes()
	if len(classes) == 0 {
		return "", ErrNoClassSelected
	}

	alphabets := make([]string, len(classes))
	for i, c := range classes {
		alphabets[i] = c.Alphabet()
	}

	return generate(opts.Length, alphabets)
}

// generate seeds one character from each alphabet, fills the rest from their
// union and shuffles the result.
func generate(length int, alphabets []string) (string, error) {
	if length < len(alphabets) {
		return "", fmt.Errorf("%w: %d is shorter than the %d selected classes", ErrInvalidLength, length, len(alphabets))
	}

	var pool strings.Builder
	for _, alphabet := range alphabets {
		if alphabet == "" {
			return "", ErrEmptyAlphabet
		}
		pool.WriteString(alphabet)
	}
	if pool.Len() == 0 {
		return "", ErrEmptyAlphabet
	}
	combined := pool.String()

	result := make([]byte, length)

	// Guarantee at least one character from each selected class.
	for i, alphabet := range alphabets {
		ch, err := randChar(alphabet)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}

	// Fill the remaining positions from the full pool.
	for i := len(alphabets); i < length; i++ {
		ch, err := randChar(combined)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}

	// Securely shuffle using Fisher-Yates with crypto/rand.
	if err := secureShuffle(result); err != nil {
		return "", err
	}

	return string(result), nil
}

func withoutAmbiguous(alphabet string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(ambiguousChars, r) {
			return -1
		}
		return r
	}, alphabet)
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

// secureShuffle performs a Fisher-Yates shuffle using crypto/rand.
func secureShuffle(data []byte) error {
	for i := len(data) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		data[i], data[j.Int64()] = data[j.Int64()], data[i]
	}
	return nil
}
