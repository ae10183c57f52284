package css

type DisplayType string

const (
	DisplayBlock            DisplayType = "block"
	DisplayInline           DisplayType = "inline"
	DisplayInlineBlock      DisplayType = "inline-block"
	DisplayListItem         DisplayType = "list-item"
	DisplayNone             DisplayType = "none"
	DisplayTable            DisplayType = "table"
	DisplayTableRow         DisplayType = "table-row"
	DisplayTableCell        DisplayType = "table-cell"
	DisplayTableRowGroup    DisplayType = "table-row-group"
	DisplayTableHeaderGroup DisplayType = "table-header-group"
	DisplayTableFooterGroup DisplayType = "table-footer-group"
	DisplayTableCaption     DisplayType = "table-caption"
	DisplayTableColumn      DisplayType = "table-column"
)

type TextAlign string

const (
	TextAlignLeft    TextAlign = "left"
	TextAlignCenter  TextAlign = "center"
	TextAlignRight   TextAlign = "right"
	TextAlignJustify TextAlign = "justify"
)

type VerticalAlign string

const (
	VerticalAlignBaseline VerticalAlign = "baseline"
	VerticalAlignTop      VerticalAlign = "top"
	VerticalAlignMiddle   VerticalAlign = "middle"
	VerticalAlignBottom   VerticalAlign = "bottom"
)

type WhiteSpace string

const (
	WhiteSpaceNormal  WhiteSpace = "normal"
	WhiteSpaceNoWrap  WhiteSpace = "nowrap"
	WhiteSpacePre     WhiteSpace = "pre"
	WhiteSpacePreWrap WhiteSpace = "pre-wrap"
	WhiteSpacePreLine WhiteSpace = "pre-line"
)

// BreakType is the computed value of page-break-before/after.
type BreakType string

const (
	BreakAuto   BreakType = "auto"
	BreakAlways BreakType = "always"
	BreakAvoid  BreakType = "avoid"
)

type BorderStyle string

const (
	BorderNone   BorderStyle = "none"
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
	BorderDouble BorderStyle = "double"
)

// ComputedStyle holds resolved values. Lengths are in points; Width,
// Height, margins and paddings may stay percentages until layout.
type ComputedStyle struct {
	Display       DisplayType
	FontFamily    []string
	FontSize      float64
	Bold          bool
	Italic        bool
	Color         Color
	Background    Color
	LineHeight    float64
	TextAlign     TextAlign
	TextIndent    float64
	VerticalAlign VerticalAlign
	WhiteSpace    WhiteSpace
	Underline     bool
	LineThrough   bool
	Visible       bool

	Width, Height      Length
	MinWidth, MaxWidth Length
	Margin             [4]Length // top, right, bottom, left
	Padding            [4]Length
	BorderWidth        BoxEdge
	BorderStyle        [4]BorderStyle
	BorderColor        [4]Color

	ListStyleType  string
	BorderCollapse bool
	BorderSpacing  float64

	BreakBefore BreakType
	BreakAfter  BreakType
	BreakInside BreakType

	lineHeightScale float64 // non-zero when line-height was a number
}

// InitialStyle returns the initial value of every property.
func InitialStyle() *ComputedStyle {
	cs := &ComputedStyle{
		Display:       DisplayInline,
		FontFamily:    []string{"serif"},
		FontSize:      12,
		Color:         Black,
		Background:    Transparent,
		LineHeight:    12 * 1.2,
		TextAlign:     TextAlignLeft,
		VerticalAlign: VerticalAlignBaseline,
		WhiteSpace:    WhiteSpaceNormal,
		Visible:       true,
		Width:         Auto,
		Height:        Auto,
		MinWidth:      Pt(0),
		MaxWidth:      Auto,
		BorderStyle:   [4]BorderStyle{BorderNone, BorderNone, BorderNone, BorderNone},
		BorderColor:   [4]Color{Black, Black, Black, Black},
		ListStyleType: "disc",
		BreakBefore:   BreakAuto,
		BreakAfter:    BreakAuto,
		BreakInside:   BreakAuto,
	}
	cs.lineHeightScale = 1.2
	return cs
}

// IsBlockLevel reports displays that take part in block formatting.
func (s *ComputedStyle) IsBlockLevel() bool {
	switch s.Display {
	case DisplayInline, DisplayInlineBlock, DisplayNone:
		return false
	}
	return true
}

// BorderBox returns the used border widths: sides with no style draw nothing.
func (s *ComputedStyle) BorderBox() BoxEdge {
	w := s.BorderWidth
	if s.BorderStyle[0] == BorderNone {
		w.Top = 0
	}
	if s.BorderStyle[1] == BorderNone {
		w.Right = 0
	}
	if s.BorderStyle[2] == BorderNone {
		w.Bottom = 0
	}
	if s.BorderStyle[3] == BorderNone {
		w.Left = 0
	}
	return w
}

// ResolveMargin resolves margins against the containing block width.
// Auto margins resolve to zero here.
func (s *ComputedStyle) ResolveMargin(containingWidth float64) BoxEdge {
	return resolveEdges(s.Margin, containingWidth)
}

func (s *ComputedStyle) ResolvePadding(containingWidth float64) BoxEdge {
	return resolveEdges(s.Padding, containingWidth)
}

func resolveEdges(e [4]Length, base float64) BoxEdge {
	return BoxEdge{
		Top:    e[0].Resolve(base),
		Right:  e[1].Resolve(base),
		Bottom: e[2].Resolve(base),
		Left:   e[3].Resolve(base),
	}
}

// inheritedProperties take the parent's computed value when nothing is declared.
var inheritedProperties = []string{
	"color", "font-family", "font-size", "font-style", "font-weight",
	"line-height", "text-align", "text-indent", "white-space", "visibility",
	"list-style-type", "border-collapse", "border-spacing",
}
