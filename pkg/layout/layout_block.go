package layout

import (
	"math"

	"golang.org/x/net/html/atom"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
)

// skipped reports nodes that generate no boxes at all.
func (le *LayoutEngine) skipped(id html.NodeID) bool {
	n := le.doc.Node(id)
	if n == nil {
		return true
	}
	if n.Type != html.ElementNode {
		return false
	}
	switch le.style(id).Display {
	case css.DisplayNone, css.DisplayTableColumn:
		return true
	}
	return false
}

// blockLevel reports whether id takes part in block formatting among its
// siblings. An inline element holding a block is treated as a block.
func (le *LayoutEngine) blockLevel(id html.NodeID) bool {
	if le.doc.Node(id).Type != html.ElementNode {
		return false
	}
	st := le.style(id)
	if st.IsBlockLevel() {
		return true
	}
	return st.Display == css.DisplayInline && le.containsBlock(id)
}

func (le *LayoutEngine) containsBlock(id html.NodeID) bool {
	if v, ok := le.hasBlock[id]; ok {
		return v
	}
	found := false
	for _, c := range le.doc.Node(id).Children {
		if le.skipped(c) || le.doc.Node(c).Type != html.ElementNode {
			continue
		}
		if le.blockLevel(c) {
			found = true
			break
		}
	}
	le.hasBlock[id] = found
	return found
}

// layoutChildren places the children of id in parent's content box,
// width wide, and returns the content height. Runs of inline children
// become line boxes; they are wrapped in an anonymous block only when
// they sit between block siblings.
func (le *LayoutEngine) layoutChildren(parent *Box, id html.NodeID, width float64) float64 {
	children := le.doc.Node(id).Children
	var hasInline, hasBlock bool
	for _, c := range children {
		if le.skipped(c) {
			continue
		}
		if le.blockLevel(c) {
			hasBlock = true
		} else {
			hasInline = true
		}
	}
	mixed := hasInline && hasBlock

	x, top := parent.ContentX(), parent.ContentY()
	cursor, pending := top, 0.0
	var run []html.NodeID
	flush := func() {
		if len(run) == 0 {
			return
		}
		y := cursor + pending
		lines, h := le.layoutInline(le.style(id), run, x, y, width)
		run = nil
		if len(lines) == 0 {
			return
		}
		if mixed {
			parent.Children = append(parent.Children, &Box{
				Kind: AnonymousBox, Node: html.InvalidNode,
				X: x, Y: y, Width: width, Height: h,
				Children: lines,
			})
		} else {
			parent.Children = append(parent.Children, lines...)
		}
		cursor = y + h
		pending = 0
	}

	for _, c := range children {
		if le.skipped(c) {
			continue
		}
		if !le.blockLevel(c) {
			run = append(run, c)
			continue
		}
		flush()
		marginTop := le.style(c).ResolveMargin(width).Top
		b := le.layoutBlockLevel(c, x, cursor+collapseMargins(pending, marginTop), width)
		parent.Children = append(parent.Children, b)
		if collapsesThrough(b) {
			b.Translate(0, cursor-b.Y)
			pending = collapseMargins(collapseMargins(pending, marginTop), b.Margin.Bottom)
			continue
		}
		cursor = b.Bottom()
		pending = b.Margin.Bottom
	}
	flush()
	return cursor + pending - top
}

// layoutBlockLevel lays out a block-level child whose border box starts
// at y; its top margin is already accounted for.
func (le *LayoutEngine) layoutBlockLevel(id html.NodeID, x, y, cbWidth float64) *Box {
	st := le.style(id)
	switch {
	case st.Display == css.DisplayTable:
		return le.layoutTable(id, x, y, cbWidth)
	case le.doc.Node(id).Atom == atom.Img:
		b := le.layoutImage(id, cbWidth)
		autoMargins(st, &b.Margin, cbWidth-b.Width-b.Margin.Horizontal())
		b.Translate(x+b.Margin.Left-b.X, y-b.Y)
		return b
	}
	return le.layoutBlock(id, x, y, cbWidth, -1)
}

// layoutBlock lays out a block container. A non-negative forcedWidth
// overrides the used border-box width, as for table cells and
// shrink-to-fit inline blocks.
func (le *LayoutEngine) layoutBlock(id html.NodeID, x, y, cbWidth, forcedWidth float64) *Box {
	st := le.style(id)
	b := &Box{
		Kind:    BlockBox,
		Node:    id,
		Style:   st,
		Y:       y,
		Margin:  st.ResolveMargin(cbWidth),
		Padding: st.ResolvePadding(cbWidth),
		Border:  st.BorderBox(),
	}
	if forcedWidth >= 0 {
		b.Width = forcedWidth
	} else {
		b.Width = le.blockWidth(st, b, cbWidth)
	}
	b.X = x + b.Margin.Left

	contentHeight := le.layoutChildren(b, id, math.Max(b.ContentWidth(), 0))
	b.Height = usedHeight(st, contentHeight) + b.Padding.Vertical() + b.Border.Vertical()
	if st.Display == css.DisplayListItem {
		le.addMarker(b)
	}
	return b
}

// blockWidth resolves the border-box width of an in-flow block and
// settles auto horizontal margins.
func (le *LayoutEngine) blockWidth(st *css.ComputedStyle, b *Box, cbWidth float64) float64 {
	extras := b.Padding.Horizontal() + b.Border.Horizontal()
	content := cbWidth - b.Margin.Horizontal() - extras
	if !st.Width.IsAuto() {
		content = st.Width.Resolve(cbWidth)
	}
	w := clampWidth(st, content, cbWidth) + extras
	autoMargins(st, &b.Margin, cbWidth-w-b.Margin.Horizontal())
	return w
}

func clampWidth(st *css.ComputedStyle, w, cbWidth float64) float64 {
	if !st.MaxWidth.IsAuto() {
		w = math.Min(w, st.MaxWidth.Resolve(cbWidth))
	}
	w = math.Max(w, st.MinWidth.Resolve(cbWidth))
	return math.Max(w, 0)
}

// autoMargins hands free horizontal space to auto margins.
func autoMargins(st *css.ComputedStyle, m *css.BoxEdge, free float64) {
	if free <= 0 {
		return
	}
	left, right := st.Margin[3].IsAuto(), st.Margin[1].IsAuto()
	switch {
	case left && right:
		m.Left += free / 2
		m.Right += free / 2
	case left:
		m.Left += free
	case right:
		m.Right += free
	}
}

// usedHeight applies an explicit height; content may overflow it.
// Percentage heights have no definite base in a paged flow and act as auto.
func usedHeight(st *css.ComputedStyle, contentHeight float64) float64 {
	if st.Height.Unit == css.UnitPt {
		return math.Max(st.Height.Value, 0)
	}
	return contentHeight
}

// addMarker places the list marker of b left of its first line.
func (le *LayoutEngine) addMarker(b *Box) {
	st := b.Style
	if st.ListStyleType == "" || st.ListStyleType == "none" {
		return
	}
	face := le.face(st)
	size := st.FontSize
	line := firstLine(b)
	baseline := b.ContentY() + face.Ascent(size)
	if line != nil {
		baseline = line.Y + line.Baseline
	}
	gap := size / 2

	m := &Box{Kind: MarkerBox, Node: b.Node, Style: st, Face: face, FontSize: size}
	if glyphMarker(st.ListStyleType) {
		d := size * 0.35
		m.Marker = st.ListStyleType
		m.Width, m.Height = d, d
		m.X = b.ContentX() - gap - d
		m.Y = baseline - size*0.3 - d/2
	} else {
		m.Text = markerText(st.ListStyleType, le.listItemNumber(b.Node))
		m.Width = face.MeasureString(m.Text, size)
		m.Baseline = face.Ascent(size)
		m.Height = m.Baseline + face.Descent(size)
		m.X = b.ContentX() - gap - m.Width
		m.Y = baseline - m.Baseline
	}
	if line != nil {
		line.Children = append(line.Children, m)
		return
	}
	b.Children = append(b.Children, m)
}

func firstLine(b *Box) *Box {
	var line *Box
	b.Walk(func(c *Box) bool {
		if line != nil {
			return false
		}
		if c.Kind == LineBox {
			line = c
			return false
		}
		return true
	})
	return line
}
