package text

import (
	"golang.org/x/text/encoding/charmap"
)

// EncodeWinAnsi encodes s for a simple font with WinAnsiEncoding.
// Runes without a cp1252 code become '?'.
func EncodeWinAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch r {
		case '\u2002', '\u2003', '\u2009', '\u202f':
			out = append(out, ' ')
			continue
		case '\u200b', '\u00ad', '\ufeff':
			continue
		}
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
