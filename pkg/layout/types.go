package layout

import (
	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/images"
	"htmlpdf/pkg/text"
)

// Kind classifies a box.
type Kind int

const (
	BlockBox Kind = iota
	AnonymousBox
	LineBox
	TextBox
	ImageBox
	MarkerBox
	TableBox
	TableRowBox
	TableCellBox
	CaptionBox
	InlineBlockBox
)

var kindNames = [...]string{
	BlockBox:       "block",
	AnonymousBox:   "anonymous",
	LineBox:        "line",
	TextBox:        "text",
	ImageBox:       "image",
	MarkerBox:      "marker",
	TableBox:       "table",
	TableRowBox:    "table-row",
	TableCellBox:   "table-cell",
	CaptionBox:     "caption",
	InlineBlockBox: "inline-block",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Box is one node of the layout tree. X, Y, Width and Height describe
// the border box in flow coordinates: the origin is the top-left of the
// first page's content area and y grows downwards.
type Box struct {
	Kind  Kind
	Node  html.NodeID // InvalidNode for anonymous boxes
	Style *css.ComputedStyle

	X, Y          float64
	Width, Height float64
	Margin        css.BoxEdge
	Padding       css.BoxEdge
	Border        css.BoxEdge

	Children []*Box

	// Text runs and list markers.
	Text       string
	Face       *text.Face
	FontSize   float64
	Baseline   float64   // distance from Y to the baseline
	Background css.Color // background of the enclosing inline element
	Marker     string    // list-style-type of a glyphless marker

	// Images.
	Image *images.Image

	// Table rows.
	Header bool // row of the table's header group
	// SpanRows is how many following rows are bound to this one by
	// rowspan; the paginator keeps them on the same page.
	SpanRows int
}

// ContentX is the left edge of the content box.
func (b *Box) ContentX() float64 { return b.X + b.Border.Left + b.Padding.Left }

// ContentY is the top edge of the content box.
func (b *Box) ContentY() float64 { return b.Y + b.Border.Top + b.Padding.Top }

func (b *Box) ContentWidth() float64 {
	return b.Width - b.Border.Horizontal() - b.Padding.Horizontal()
}

func (b *Box) ContentHeight() float64 {
	return b.Height - b.Border.Vertical() - b.Padding.Vertical()
}

// Bottom is the bottom edge of the border box.
func (b *Box) Bottom() float64 { return b.Y + b.Height }

// ForcedBreakBefore reports page-break-before: always (or an alias).
func (b *Box) ForcedBreakBefore() bool {
	return b.Style != nil && b.Style.BreakBefore == css.BreakAlways
}

func (b *Box) ForcedBreakAfter() bool {
	return b.Style != nil && b.Style.BreakAfter == css.BreakAlways
}

// AvoidBreakAfter reports page-break-after: avoid, set on headings by default.
func (b *Box) AvoidBreakAfter() bool {
	return b.Style != nil && b.Style.BreakAfter == css.BreakAvoid
}

func (b *Box) AvoidBreakInside() bool {
	return b.Style != nil && b.Style.BreakInside == css.BreakAvoid
}

// Translate moves b and its whole subtree.
func (b *Box) Translate(dx, dy float64) {
	b.X += dx
	b.Y += dy
	for _, c := range b.Children {
		c.Translate(dx, dy)
	}
}

// Walk visits b and its descendants depth-first, pre-order. Returning
// false from fn skips the children of that box.
func (b *Box) Walk(fn func(*Box) bool) {
	if !fn(b) {
		return
	}
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Clone copies b and its subtree. Style, Face and Image are shared.
func (b *Box) Clone() *Box {
	c := *b
	if len(b.Children) > 0 {
		c.Children = make([]*Box, len(b.Children))
		for i, child := range b.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// MinMaxSizes are the min-content and max-content widths of a subtree,
// margins included.
type MinMaxSizes struct {
	MinContentSize float64
	MaxContentSize float64
}
