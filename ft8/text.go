package ft8

import (
	"strings"
)

/*
 * Message Text Alphabets
 * The packed message fields use several restricted alphabets; Charn and
 * Nchar convert between character and alphabet index.
 */

// Alphabet selects one of the character tables used by the bit packing.
type Alphabet int

const (
	AlphabetFull          Alphabet = iota // space 0-9 A-Z + - . / ? (free text)
	AlphabetAlphanumSpace                 // space 0-9 A-Z
	AlphabetAlphanum                      // 0-9 A-Z
	AlphabetLettersSpace                  // space A-Z
	AlphabetNumeric                       // 0-9
	AlphabetHashChars                     // space 0-9 A-Z / (hashed callsigns)
)

// Charn returns the character at index c of the alphabet, or '_' when the
// index is out of range.
func Charn(c int, table Alphabet) byte {
	if table != AlphabetAlphanum && table != AlphabetNumeric {
		if c == 0 {
			return ' '
		}
		c--
	}
	if table != AlphabetLettersSpace {
		if c < 10 {
			return '0' + byte(c)
		}
		c -= 10
	}
	if table != AlphabetNumeric {
		if c < 26 {
			return 'A' + byte(c)
		}
		c -= 26
	}

	switch table {
	case AlphabetFull:
		if c < 5 {
			return "+-./?"[c]
		}
	case AlphabetHashChars:
		if c == 0 {
			return '/'
		}
	}
	return '_'
}

// Nchar returns the alphabet index of c, or -1 when the character is not in
// the alphabet. Inverse of Charn.
func Nchar(c byte, table Alphabet) int {
	n := 0
	if table != AlphabetAlphanum && table != AlphabetNumeric {
		if c == ' ' {
			return 0
		}
		n++
	}
	if table != AlphabetLettersSpace {
		if c >= '0' && c <= '9' {
			return n + int(c-'0')
		}
		n += 10
	}
	if table != AlphabetNumeric {
		if c >= 'A' && c <= 'Z' {
			return n + int(c-'A')
		}
		n += 26
	}

	switch table {
	case AlphabetFull:
		if i := strings.IndexByte("+-./?", c); i >= 0 {
			return n + i
		}
	case AlphabetHashChars:
		if c == '/' {
			return n
		}
	}
	return -1
}

// IntToDD formats a signed integer with a fixed digit width, always emitting
// the sign when fullSign is set ("+05", "-12").
func IntToDD(value, width int, fullSign bool) string {
	var b strings.Builder
	if value < 0 {
		b.WriteByte('-')
		value = -value
	} else if fullSign {
		b.WriteByte('+')
	}

	divisor := 1
	for i := 0; i < width-1; i++ {
		divisor *= 10
	}
	for divisor >= 1 {
		digit := value / divisor
		b.WriteByte('0' + byte(digit))
		value -= digit * divisor
		divisor /= 10
	}
	return b.String()
}

func trimSpaces(s string) string {
	return strings.Trim(s, " ")
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
