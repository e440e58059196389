// Package cipher implements monoalphabetic substitution keys.
package cipher

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/verte-zerg/subcrack/internal/alphabet"
)

// ErrMalformedKey reports a key that is not a permutation of A-Z.
var ErrMalformedKey = errors.New("malformed key")

// Key maps cipher letter i (A=0) to the plaintext letter at position i.
// Keys are values; every transformation returns a new Key.
type Key [alphabet.Letters]byte

// Identity returns the key ABC...Z.
func Identity() Key {
	var k Key
	for i := range k {
		k[i] = alphabet.Symbol(i)
	}
	return k
}

// ParseKey parses a 26-letter permutation, ignoring case.
func ParseKey(s string) (Key, error) {
	var k Key
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != alphabet.Letters {
		return k, fmt.Errorf("%w: want %d letters, got %d", ErrMalformedKey, alphabet.Letters, len(s))
	}
	copy(k[:], s)
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Random returns a uniformly shuffled key.
func Random(rnd *rand.Rand) Key {
	var k Key
	for i, p := range rnd.Perm(alphabet.Letters) {
		k[i] = alphabet.Symbol(p)
	}
	return k
}

// Validate checks that every letter appears exactly once.
func (k Key) Validate() error {
	var seen [alphabet.Letters]bool
	for i, c := range k {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("%w: invalid symbol %q at position %d", ErrMalformedKey, c, i)
		}
		if seen[c-'A'] {
			return fmt.Errorf("%w: duplicate letter %q", ErrMalformedKey, c)
		}
		seen[c-'A'] = true
	}
	return nil
}

// MustValid panics when k is not a permutation.
func MustValid(k Key) {
	if err := k.Validate(); err != nil {
		panic(err)
	}
}

func (k Key) String() string {
	return string(k[:])
}

// Apply decrypts text. Letters go through the key, everything else
// becomes a space, so the output has as many characters as the input.
func (k Key) Apply(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		idx := alphabet.Index(r)
		if idx == alphabet.Space {
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(k[idx])
	}
	return b.String()
}

// ApplySymbols decrypts normalized symbols into dst and returns it.
// dst is grown when it is too short.
func (k Key) ApplySymbols(dst, symbols []byte) []byte {
	if cap(dst) < len(symbols) {
		dst = make([]byte, len(symbols))
	}
	dst = dst[:len(symbols)]
	for i, s := range symbols {
		if s == alphabet.Space {
			dst[i] = alphabet.Space
			continue
		}
		dst[i] = k[s] - 'A'
	}
	return dst
}

// Propose swaps two distinct positions chosen uniformly at random.
func (k Key) Propose(rnd *rand.Rand) Key {
	var first, second int
	for first == second {
		first = rnd.Intn(alphabet.Letters)
		second = rnd.Intn(alphabet.Letters)
	}
	next := k
	next[first], next[second] = next[second], next[first]
	return next
}

// Inverse returns the key that undoes k.
func (k Key) Inverse() Key {
	var inv Key
	for i, c := range k {
		inv[c-'A'] = alphabet.Symbol(i)
	}
	return inv
}

// Agreement counts positions on which both keys map to the same letter.
func (k Key) Agreement(other Key) int {
	n := 0
	for i := range k {
		if k[i] == other[i] {
			n++
		}
	}
	return n
}
