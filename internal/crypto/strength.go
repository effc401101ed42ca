package crypto

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Rating is a coarse three-tier classification of password composition.
type Rating int

const (
	Weak Rating = iota
	Medium
	Strong
)

// Color is the display color associated with a Rating.
type Color string

const (
	Red    Color = "red"
	Orange Color = "orange"
	Green  Color = "green"
)

func (r Rating) String() string {
	switch r {
	case Weak:
		return "weak"
	case Medium:
		return "medium"
	case Strong:
		return "strong"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// Color returns the display color for the rating.
func (r Rating) Color() Color {
	switch r {
	case Strong:
		return Green
	case Medium:
		return Orange
	default:
		return Red
	}
}

// Evaluate rates a password by its length and the classes it draws from.
//
//   - strong: 12+ characters with a letter, a digit and a special character
//   - medium: 8+ characters with a letter and a digit, or with a special character
//   - weak:   anything else, including the empty string
func Evaluate(password string) (Rating, Color) {
	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case IsSpecial(r):
			hasSpecial = true
		}
	}

	length := utf8.RuneCountInString(password)

	rating := Weak
	switch {
	case length >= 12 && hasLetter && hasDigit && hasSpecial:
		rating = Strong
	case length >= 8 && ((hasLetter && hasDigit) || hasSpecial):
		rating = Medium
	}
	return rating, rating.Color()
}
