package text

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// FontKey identifies one face of a family.
type FontKey struct {
	Family string
	Bold   bool
	Italic bool
}

func (k FontKey) String() string {
	s := k.Family
	switch {
	case k.Bold && k.Italic:
		s += " bold italic"
	case k.Bold:
		s += " bold"
	case k.Italic:
		s += " italic"
	}
	return s
}

// Face is a parsed TrueType program with the metrics needed for layout
// and for embedding. All metrics are in units of 1/1000 em, the PDF glyph
// space. A Face is immutable once built and may be shared.
type Face struct {
	Key     FontKey
	Name    string // PostScript name used as the PDF BaseFont
	Program []byte

	widths    [256]float64
	ascent    float64
	descent   float64
	capHeight float64
	bbox      [4]float64
	monospace bool
}

const glyphSpace = 1000

// NewFace parses program. Only TrueType outlines are supported.
func NewFace(key FontKey, program []byte) (*Face, error) {
	f, err := truetype.Parse(program)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	face := &Face{Key: key, Program: program}

	scale := fixed.Int26_6(glyphSpace << 6)
	for code := 0; code < 256; code++ {
		r := charmap.Windows1252.DecodeByte(byte(code))
		idx := f.Index(r)
		if idx == 0 && r != ' ' {
			idx = f.Index('?')
		}
		face.widths[code] = toGlyphSpace(f.HMetric(scale, idx).AdvanceWidth)
	}
	face.monospace = face.widths['i'] == face.widths['W'] && face.widths['i'] > 0

	b := f.Bounds(scale)
	face.bbox = [4]float64{toGlyphSpace(b.Min.X), toGlyphSpace(b.Min.Y), toGlyphSpace(b.Max.X), toGlyphSpace(b.Max.Y)}

	sized := truetype.NewFace(f, &truetype.Options{Size: glyphSpace, DPI: 72, Hinting: font.HintingNone})
	defer sized.Close()
	m := sized.Metrics()
	face.ascent = toGlyphSpace(m.Ascent)
	face.descent = toGlyphSpace(m.Descent)
	if bounds, _, ok := sized.GlyphBounds('H'); ok {
		face.capHeight = -toGlyphSpace(bounds.Min.Y)
	} else {
		face.capHeight = face.ascent * 0.7
	}

	face.Name = postScriptName(f.Name(truetype.NameIDPostscriptName), key)
	return face, nil
}

func toGlyphSpace(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func postScriptName(name string, key FontKey) string {
	clean := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || unicode.IsSpace(r) || strings.ContainsRune("()<>[]{}/%#", r) {
			return -1
		}
		return r
	}, name)
	if clean != "" {
		return clean
	}
	for _, w := range strings.Fields(key.Family) {
		clean += strings.ToUpper(w[:1]) + w[1:]
	}
	if clean == "" {
		clean = "Font"
	}
	switch {
	case key.Bold && key.Italic:
		return clean + "-BoldItalic"
	case key.Bold:
		return clean + "-Bold"
	case key.Italic:
		return clean + "-Italic"
	}
	return clean
}

// MeasureString returns the advance of s at size points. Characters
// outside WinAnsi are measured as the '?' they will be encoded to.
func (f *Face) MeasureString(s string, size float64) float64 {
	var w float64
	for _, b := range EncodeWinAnsi(s) {
		w += f.widths[b]
	}
	return w * size / glyphSpace
}

// Ascent is the distance above the baseline at size points.
func (f *Face) Ascent(size float64) float64 { return f.ascent * size / glyphSpace }

// Descent is the distance below the baseline at size points, positive.
func (f *Face) Descent(size float64) float64 { return f.descent * size / glyphSpace }

// GlyphWidths returns the advance of every WinAnsi code in glyph space.
func (f *Face) GlyphWidths() [256]float64 { return f.widths }

// Metrics for the PDF font descriptor, in glyph space.
func (f *Face) AscentUnits() float64    { return f.ascent }
func (f *Face) DescentUnits() float64   { return -f.descent }
func (f *Face) CapHeightUnits() float64 { return f.capHeight }
func (f *Face) BBox() [4]float64        { return f.bbox }

func (f *Face) ItalicAngle() float64 {
	if f.Key.Italic {
		return -12
	}
	return 0
}

// Flags is the PDF font descriptor flag word.
func (f *Face) Flags() int {
	flags := 32 // nonsymbolic
	if f.monospace {
		flags |= 1
	}
	if f.Key.Italic {
		flags |= 64
	}
	return flags
}

func (f *Face) StemV() int {
	if f.Key.Bold {
		return 120
	}
	return 80
}
