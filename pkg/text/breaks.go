package text

import "strings"

// Span is one unbreakable item of a paragraph: a word, an inline image,
// or a forced break.
type Span struct {
	Width float64
	// Space is the gap before the span; it is dropped at the start of a line.
	Space float64
	// ForceBreak ends the line after this span.
	ForceBreak bool
}

// Line is the half-open span range [Start, End) placed on one line.
type Line struct {
	Start, End int
	Width      float64
}

// Fill breaks spans into lines greedily. The first line is firstWidth
// wide and the rest are width wide. A span wider than its line is placed
// alone and overflows. A zero-width forced break always stays on the
// line it ends.
func Fill(spans []Span, firstWidth, width float64) []Line {
	var lines []Line
	cur := Line{}
	avail := firstWidth
	for i, s := range spans {
		bare := s.ForceBreak && s.Width == 0
		if cur.End > cur.Start && !bare {
			if cur.Width+s.Space+s.Width > avail {
				lines = append(lines, cur)
				cur = Line{Start: i, End: i}
				avail = width
			} else {
				cur.Width += s.Space
			}
		}
		cur.End = i + 1
		cur.Width += s.Width
		if s.ForceBreak {
			lines = append(lines, cur)
			cur = Line{Start: i + 1, End: i + 1}
			avail = width
		}
	}
	if cur.End > cur.Start {
		lines = append(lines, cur)
	}
	return lines
}

// BreakLines wraps plain text set in face at size. Runs of whitespace
// separate words.
func BreakLines(s string, face *Face, size, firstWidth, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	space := face.MeasureString(" ", size)
	spans := make([]Span, len(words))
	for i, w := range words {
		spans[i] = Span{Width: face.MeasureString(w, size), Space: space}
	}
	var out []string
	for _, l := range Fill(spans, firstWidth, width) {
		out = append(out, strings.Join(words[l.Start:l.End], " "))
	}
	return out
}
