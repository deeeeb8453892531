// Package textenc measures and cleans text for the Shift_JIS import format.
package textenc

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Replacement stands in for runes Shift_JIS cannot encode.
const Replacement = '?'

// Options controls Normalize.
type Options struct {
	// FoldIdeographicSpace maps U+3000 to an ASCII space.
	FoldIdeographicSpace bool
}

// DefaultOptions folds the ideographic space.
var DefaultOptions = Options{FoldIdeographicSpace: true}

// Normalize prepares text for the import format: NFC composition,
// disallowed spaces and control characters to ASCII space, full-width
// letters and digits to half-width, unencodable runes to Replacement.
func Normalize(s string, opts Options) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\u00a0':
			r = ' '
		case r == '\u3000' && opts.FoldIdeographicSpace:
			r = ' '
		case unicode.IsControl(r):
			r = ' '
		default:
			r = foldAlnum(r)
		}
		if runeLen(r) == 0 {
			r = Replacement
		}
		b.WriteRune(r)
	}
	return b.String()
}

func foldAlnum(r rune) rune {
	p := width.LookupRune(r)
	if p.Kind() != width.EastAsianFullwidth {
		return r
	}
	n := p.Narrow()
	if n >= '0' && n <= '9' || n >= 'A' && n <= 'Z' || n >= 'a' && n <= 'z' {
		return n
	}
	return r
}

// runeLen returns the Shift_JIS byte length of r, or 0 if r cannot be encoded.
func runeLen(r rune) int {
	if r < utf8.RuneSelf {
		return 1
	}
	if r == utf8.RuneError {
		return 0
	}
	enc, err := japanese.ShiftJIS.NewEncoder().String(string(r))
	if err != nil {
		return 0
	}
	return len(enc)
}

// ByteLength returns the Shift_JIS encoded length of s. Unencodable runes
// count as one byte, the width of Replacement.
func ByteLength(s string) int {
	n := 0
	for _, r := range s {
		l := runeLen(r)
		if l == 0 {
			l = 1
		}
		n += l
	}
	return n
}

// Truncate returns the longest prefix of s whose encoded length is at most
// limit bytes. It never splits a rune.
func Truncate(s string, limit int) string {
	n := 0
	for i, r := range s {
		l := runeLen(r)
		if l == 0 {
			l = 1
		}
		if n+l > limit {
			return s[:i]
		}
		n += l
	}
	return s
}

// Fit truncates s to limit bytes and reports whether anything was cut.
func Fit(s string, limit int) (string, bool) {
	if ByteLength(s) <= limit {
		return s, false
	}
	return Truncate(s, limit), true
}

// NewWriter returns a writer that encodes UTF-8 input as Shift_JIS.
func NewWriter(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
}

// NewReader returns a reader that decodes Shift_JIS input to UTF-8.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, japanese.ShiftJIS.NewDecoder())
}
