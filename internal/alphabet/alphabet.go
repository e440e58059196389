// Package alphabet defines the symbol set shared by models and keys.
package alphabet

import "unicode"

const (
	// Letters is the number of cipher letters A-Z.
	Letters = 26
	// Space is the symbol index every non-letter collapses to.
	Space = Letters
	// Size is the number of symbols including space.
	Size = Letters + 1
)

// Index upper-cases r and returns its symbol index.
func Index(r rune) int {
	if r >= 'a' && r <= 'z' {
		return int(r - 'a')
	}
	if r >= 'A' && r <= 'Z' {
		return int(r - 'A')
	}
	if r < unicode.MaxASCII {
		return Space
	}
	u := unicode.ToUpper(r)
	if u >= 'A' && u <= 'Z' {
		return int(u - 'A')
	}
	return Space
}

// Symbol returns the character for a symbol index.
func Symbol(i int) byte {
	if i < 0 || i >= Letters {
		return ' '
	}
	return byte('A' + i)
}

// Normalize maps every character of s to its symbol index.
func Normalize(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(Index(r)))
	}
	return out
}

// TrimSpace drops leading and trailing space symbols.
func TrimSpace(symbols []byte) []byte {
	start, end := 0, len(symbols)
	for start < end && symbols[start] == Space {
		start++
	}
	for end > start && symbols[end-1] == Space {
		end--
	}
	return symbols[start:end]
}
