package layout

import (
	"math"

	"golang.org/x/net/html/atom"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/text"
)

// piece is the part of a word set in one style.
type piece struct {
	node  html.NodeID
	style *css.ComputedStyle
	face  *text.Face
	text  string
	width float64
	bg    css.Color
}

// inlineItem is one unbreakable unit of inline content: a word (possibly
// spanning several inline elements), an atomic box, or a forced break.
type inlineItem struct {
	pieces     []piece
	atomic     *Box
	width      float64
	minWidth   float64
	space      float64 // break opportunity before the item
	forceBreak bool
}

type inlineCollector struct {
	le      *LayoutEngine
	cbWidth float64
	measure bool // intrinsic sizing: inline blocks are measured, not laid out

	items  []inlineItem
	open   bool    // last item is a word still taking text
	space  float64 // pending collapsible space
	glue   bool    // pending space inside a nowrap run
	glueW  float64
	column int // characters on the current preformatted line
	bg     []css.Color
}

func (c *inlineCollector) background() css.Color {
	if n := len(c.bg); n > 0 {
		return c.bg[n-1]
	}
	return css.Transparent
}

func (c *inlineCollector) collect(id html.NodeID) {
	le := c.le
	n := le.doc.Node(id)
	if n.Type == html.TextNode {
		c.text(id, n.Text)
		return
	}
	if le.skipped(id) {
		return
	}
	st := le.style(id)
	switch {
	case n.Atom == atom.Br:
		c.forcedBreak()
	case n.Atom == atom.Img:
		c.atomic(le.layoutImage(id, c.cbWidth))
	case st.Display == css.DisplayInlineBlock:
		if c.measure {
			mm := le.ComputeMinMaxSizes(id)
			c.closeWord()
			c.items = append(c.items, inlineItem{width: mm.MaxContentSize, minWidth: mm.MinContentSize, space: c.space})
			c.space = 0
			return
		}
		c.atomic(le.layoutInlineBlock(id, c.cbWidth))
	default:
		bg := c.background()
		if !st.Background.IsTransparent() {
			bg = st.Background
		}
		c.bg = append(c.bg, bg)
		for _, child := range n.Children {
			c.collect(child)
		}
		c.bg = c.bg[:len(c.bg)-1]
	}
}

func (c *inlineCollector) text(id html.NodeID, s string) {
	st := c.le.style(id)
	face := c.le.face(st)
	space := face.MeasureString(" ", st.FontSize)

	if st.WhiteSpace == css.WhiteSpacePre || st.WhiteSpace == css.WhiteSpacePreWrap {
		c.preformatted(id, st, face, space, c.dropLeadingNewline(id, s))
		return
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			switch {
			case r == '\n' && st.WhiteSpace == css.WhiteSpacePreLine:
				c.forcedBreak()
			case st.WhiteSpace == css.WhiteSpaceNoWrap && c.open:
				c.glue, c.glueW = true, space
			default:
				c.closeWord()
				c.space = space
			}
		default:
			if c.glue {
				c.glue = false
				if st.WhiteSpace == css.WhiteSpaceNoWrap {
					c.appendText(id, st, face, " ")
				} else {
					c.closeWord()
					c.space = c.glueW
				}
			}
			c.appendText(id, st, face, string(r))
		}
	}
}

// dropLeadingNewline removes the newline that directly follows <pre>.
func (c *inlineCollector) dropLeadingNewline(id html.NodeID, s string) string {
	n := c.le.doc.Node(id)
	parent := c.le.doc.Node(n.Parent)
	if parent == nil || parent.Atom != atom.Pre || len(parent.Children) == 0 || parent.Children[0] != id {
		return s
	}
	if len(s) > 1 && s[0] == '\r' && s[1] == '\n' {
		return s[2:]
	}
	if len(s) > 0 && s[0] == '\n' {
		return s[1:]
	}
	return s
}

const tabSize = 8

func (c *inlineCollector) preformatted(id html.NodeID, st *css.ComputedStyle, face *text.Face, space float64, s string) {
	wrap := st.WhiteSpace == css.WhiteSpacePreWrap
	for _, r := range s {
		switch r {
		case '\r':
		case '\n':
			c.forcedBreak()
		case ' ', '\t':
			n := 1
			if r == '\t' {
				n = tabSize - c.column%tabSize
			}
			c.column += n
			if wrap {
				c.closeWord()
				c.space += float64(n) * space
				continue
			}
			for ; n > 0; n-- {
				c.appendText(id, st, face, " ")
			}
		default:
			c.column++
			c.appendText(id, st, face, string(r))
		}
	}
}

func (c *inlineCollector) appendText(id html.NodeID, st *css.ComputedStyle, face *text.Face, s string) {
	if !c.open {
		c.items = append(c.items, inlineItem{space: c.space})
		c.space = 0
		c.open = true
	}
	it := &c.items[len(c.items)-1]
	if k := len(it.pieces); k > 0 && it.pieces[k-1].node == id {
		it.pieces[k-1].text += s
		return
	}
	it.pieces = append(it.pieces, piece{node: id, style: st, face: face, text: s, bg: c.background()})
}

func (c *inlineCollector) closeWord() {
	if c.glue {
		c.glue = false
		c.space = c.glueW
	}
	if !c.open {
		return
	}
	c.open = false
	it := &c.items[len(c.items)-1]
	for i := range it.pieces {
		p := &it.pieces[i]
		p.width = p.face.MeasureString(p.text, p.style.FontSize)
		it.width += p.width
	}
	it.minWidth = it.width
}

func (c *inlineCollector) forcedBreak() {
	c.closeWord()
	c.items = append(c.items, inlineItem{forceBreak: true})
	c.space = 0
	c.column = 0
}

func (c *inlineCollector) atomic(b *Box) {
	c.closeWord()
	w := b.Width + b.Margin.Horizontal()
	c.items = append(c.items, inlineItem{atomic: b, width: w, minWidth: w, space: c.space})
	c.space = 0
}

func (c *inlineCollector) finish() []inlineItem {
	c.closeWord()
	return c.items
}

// layoutInline breaks a run of inline nodes into line boxes starting at
// (x, y). st is the style of the containing block; it supplies the strut,
// text-align and text-indent.
func (le *LayoutEngine) layoutInline(st *css.ComputedStyle, run []html.NodeID, x, y, width float64) ([]*Box, float64) {
	c := &inlineCollector{le: le, cbWidth: width}
	for _, id := range run {
		c.collect(id)
	}
	items := c.finish()
	if len(items) == 0 {
		return nil, 0
	}

	spans := make([]text.Span, len(items))
	for i, it := range items {
		spans[i] = text.Span{Width: it.width, Space: it.space, ForceBreak: it.forceBreak}
	}
	indent := st.TextIndent
	strutAbove, strutBelow := halfLeading(le.face(st), st.FontSize, st.LineHeight)

	var lines []*Box
	cy := y
	for i, l := range text.Fill(spans, width-indent, width) {
		lineItems := items[l.Start:l.End]
		above, below := strutAbove, strutBelow
		for _, it := range lineItems {
			for _, p := range it.pieces {
				a, b := halfLeading(p.face, p.style.FontSize, p.style.LineHeight)
				above, below = math.Max(above, a), math.Max(below, b)
			}
			if it.atomic != nil {
				above = math.Max(above, it.atomic.Height+it.atomic.Margin.Vertical())
			}
		}
		h := math.Max(above+below, 0)

		start, avail := x, width
		if i == 0 {
			start += indent
			avail -= indent
		}
		if free := avail - l.Width; free > 0 {
			switch st.TextAlign {
			case css.TextAlignCenter:
				start += free / 2
			case css.TextAlignRight:
				start += free
			}
		}
		line := &Box{Kind: LineBox, Node: html.InvalidNode, X: x, Y: cy, Width: width, Height: h, Baseline: above}
		placeLine(line, lineItems, start, cy+above)
		lines = append(lines, line)
		cy += h
	}
	return lines, cy - y
}

// halfLeading splits a line height around the baseline the way CSS does:
// the leading is shared equally above the ascent and below the descent.
func halfLeading(face *text.Face, size, lineHeight float64) (above, below float64) {
	a, d := face.Ascent(size), face.Descent(size)
	lead := (lineHeight - (a + d)) / 2
	return a + lead, d + lead
}

// placeLine positions the items of one line and merges neighbouring runs
// that render identically.
func placeLine(line *Box, items []inlineItem, cx, baseline float64) {
	for i, it := range items {
		gap := 0.0
		if i > 0 {
			gap = it.space
		}
		cx += gap
		if b := it.atomic; b != nil {
			b.Translate(cx+b.Margin.Left-b.X, baseline-b.Margin.Bottom-b.Height-b.Y)
			line.Children = append(line.Children, b)
			cx += it.width
			continue
		}
		for j, p := range it.pieces {
			size := p.style.FontSize
			a := p.face.Ascent(size)
			run := &Box{
				Kind:       TextBox,
				Node:       p.node,
				Style:      p.style,
				Text:       p.text,
				Face:       p.face,
				FontSize:   size,
				X:          cx,
				Y:          baseline - a,
				Width:      p.width,
				Height:     a + p.face.Descent(size),
				Baseline:   a,
				Background: p.bg,
			}
			sp := 0.0
			if j == 0 {
				sp = gap
			}
			if prev := lastRun(line); prev != nil && sameRun(prev, run) &&
				(sp == 0 || math.Abs(sp-p.face.MeasureString(" ", size)) < epsilon) {
				if sp > 0 {
					prev.Text += " "
				}
				prev.Text += p.text
				prev.Width += sp + p.width
			} else {
				line.Children = append(line.Children, run)
			}
			cx += p.width
		}
	}
}

func lastRun(line *Box) *Box {
	if n := len(line.Children); n > 0 && line.Children[n-1].Kind == TextBox {
		return line.Children[n-1]
	}
	return nil
}

func sameRun(a, b *Box) bool {
	return a.Face == b.Face &&
		a.FontSize == b.FontSize &&
		a.Background == b.Background &&
		a.Style.Color == b.Style.Color &&
		a.Style.Underline == b.Style.Underline &&
		a.Style.LineThrough == b.Style.LineThrough &&
		a.Style.Visible == b.Style.Visible
}

// layoutInlineBlock lays out an inline-block at the origin; the line
// moves it into place. Auto widths shrink to fit.
func (le *LayoutEngine) layoutInlineBlock(id html.NodeID, cbWidth float64) *Box {
	st := le.style(id)
	forced := -1.0
	if st.Width.IsAuto() {
		mm := le.ComputeMinMaxSizes(id)
		m := st.ResolveMargin(cbWidth).Horizontal()
		w := math.Min(math.Max(mm.MinContentSize-m, cbWidth-m), mm.MaxContentSize-m)
		forced = math.Max(w, 0)
	}
	b := le.layoutBlock(id, 0, 0, cbWidth, forced)
	b.Kind = InlineBlockBox
	b.Margin = st.ResolveMargin(cbWidth)
	b.Translate(b.Margin.Left-b.X, 0)
	return b
}
