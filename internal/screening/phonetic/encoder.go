// Package phonetic produces coarse phonetic codes for names. The codes are
// the indexed lookup keys of the watchlist store: two names that sound alike
// should collapse to the same code so a cheap equality query surfaces them as
// candidates for precise similarity scoring.
package phonetic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoder generates a primary and an alternate phonetic code for a name.
// The primary code is a metaphone-style consonant skeleton; the alternate is
// a refined-soundex variant that preserves word-initial letters and does not
// collapse consonant runs across vowels. Querying both catches ambiguities
// that a single algorithm misses.
type Encoder struct {
	maxCodeLen int
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithMaxCodeLen bounds the emitted code length. Longer codes discriminate
// better at the cost of index selectivity.
func WithMaxCodeLen(n int) Option {
	return func(e *Encoder) {
		if n > 0 {
			e.maxCodeLen = n
		}
	}
}

// NewEncoder constructs an Encoder with a 12-character code bound.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{maxCodeLen: 12}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode returns the primary and alternate phonetic codes for a name.
// Empty or unencodable input yields empty codes; callers treat empty codes
// as "no candidates" rather than an error.
func (e *Encoder) Encode(name string) (primary, alternate string) {
	cleaned := Normalize(name)
	if cleaned == "" {
		return "", ""
	}
	return e.metaphone(cleaned), e.refinedSoundex(cleaned)
}

// deaccent builds the diacritic-stripping transformer. Transform chains
// carry internal buffers and must not be shared across goroutines, so each
// Normalize call gets its own.
func deaccent() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize folds a name to its canonical matching form: uppercase ASCII
// letters and digits with single-space word separation. Diacritics are
// stripped before filtering so "Müller" and "Muller" normalize identically.
func Normalize(name string) string {
	folded, _, err := transform.String(deaccent(), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range strings.ToUpper(folded) {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// metaphone emits a consonant-skeleton code for the whole cleaned name.
// Word boundaries are ignored so token order variations still share the
// leading portion of the code.
func (e *Encoder) metaphone(cleaned string) string {
	s := strings.ReplaceAll(cleaned, " ", "")
	if s == "" {
		return ""
	}

	var out strings.Builder
	n := len(s)
	for i := 0; i < n && out.Len() < e.maxCodeLen; i++ {
		c := s[i]
		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == 0 {
				out.WriteByte(c)
			}
		case 'B':
			// Silent after M at word end (LAMB).
			if !(i == n-1 && i > 0 && s[i-1] == 'M') {
				out.WriteByte('B')
			}
		case 'C':
			switch {
			case i+1 < n && s[i+1] == 'H':
				out.WriteByte('X')
			case i+1 < n && (s[i+1] == 'I' || s[i+1] == 'E' || s[i+1] == 'Y'):
				out.WriteByte('S')
			default:
				out.WriteByte('K')
			}
		case 'D':
			if i+2 < n && s[i+1] == 'G' && (s[i+2] == 'E' || s[i+2] == 'I' || s[i+2] == 'Y') {
				out.WriteByte('J')
			} else {
				out.WriteByte('T')
			}
		case 'G':
			switch {
			case i > 0 && i+1 < n && s[i+1] == 'H':
				// Silent in non-initial GH.
			case i+1 < n && s[i+1] == 'N':
				// Silent in GN.
			case i+1 < n && (s[i+1] == 'I' || s[i+1] == 'E' || s[i+1] == 'Y'):
				out.WriteByte('J')
			default:
				out.WriteByte('K')
			}
		case 'H':
			// Keep only word-initial or intervocalic H.
			if i == 0 || (i > 0 && isVowel(s[i-1]) && i+1 < n && isVowel(s[i+1])) {
				out.WriteByte('H')
			}
		case 'K':
			if !(i > 0 && s[i-1] == 'C') {
				out.WriteByte('K')
			}
		case 'P':
			if i+1 < n && s[i+1] == 'H' {
				out.WriteByte('F')
			} else {
				out.WriteByte('P')
			}
		case 'Q':
			out.WriteByte('K')
		case 'S':
			if i+1 < n && s[i+1] == 'H' {
				out.WriteByte('X')
			} else {
				out.WriteByte('S')
			}
		case 'T':
			if i+1 < n && s[i+1] == 'H' {
				out.WriteByte('0')
			} else {
				out.WriteByte('T')
			}
		case 'V':
			out.WriteByte('F')
		case 'W', 'Y':
			if i+1 < n && isVowel(s[i+1]) {
				out.WriteByte(c)
			}
		case 'X':
			out.WriteString("KS")
		case 'Z':
			out.WriteByte('S')
		case 'F', 'J', 'L', 'M', 'N', 'R':
			out.WriteByte(c)
		default:
			// Digits pass through so "ACME 3000" and "ACME3000" agree.
			if c >= '0' && c <= '9' {
				out.WriteByte(c)
			}
		}
	}

	code := out.String()
	if len(code) > e.maxCodeLen {
		code = code[:e.maxCodeLen]
	}
	return code
}

// refinedSoundex emits a vowel-sensitive digit code. Each word keeps its
// initial letter; consonants map to digit classes and runs only collapse when
// uninterrupted, so vowels between like consonants produce distinct codes.
func (e *Encoder) refinedSoundex(cleaned string) string {
	var out strings.Builder
	for _, word := range strings.Fields(cleaned) {
		if out.Len() >= e.maxCodeLen {
			break
		}
		out.WriteByte(word[0])
		var prev byte
		for i := 1; i < len(word) && out.Len() < e.maxCodeLen; i++ {
			d := soundexClass(word[i])
			if d == 0 {
				// Vowels and H/W break the run without emitting.
				prev = 0
				continue
			}
			if d != prev {
				out.WriteByte(d)
			}
			prev = d
		}
	}

	code := out.String()
	if len(code) > e.maxCodeLen {
		code = code[:e.maxCodeLen]
	}
	return code
}

func soundexClass(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return '1'
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return '2'
	case 'D', 'T':
		return '3'
	case 'L':
		return '4'
	case 'M', 'N':
		return '5'
	case 'R':
		return '6'
	}
	return 0
}

func isVowel(c byte) bool {
	return c == 'A' || c == 'E' || c == 'I' || c == 'O' || c == 'U'
}
