package css

import (
	"strconv"
	"strings"
)

// initialDeclarations spell out the initial value of every computed property.
var initialDeclarations = []Declaration{
	{Property: "display", Value: "inline"},
	{Property: "font-size", Value: "medium"},
	{Property: "font-family", Value: "serif"},
	{Property: "font-weight", Value: "normal"},
	{Property: "font-style", Value: "normal"},
	{Property: "line-height", Value: "normal"},
	{Property: "color", Value: "black"},
	{Property: "background-color", Value: "transparent"},
	{Property: "text-align", Value: "left"},
	{Property: "text-indent", Value: "0"},
	{Property: "vertical-align", Value: "baseline"},
	{Property: "white-space", Value: "normal"},
	{Property: "visibility", Value: "visible"},
	{Property: "width", Value: "auto"},
	{Property: "height", Value: "auto"},
	{Property: "list-style-type", Value: "disc"},
	{Property: "border-collapse", Value: "separate"},
	{Property: "border-spacing", Value: "0"},
	{Property: "page-break-before", Value: "auto"},
	{Property: "page-break-after", Value: "auto"},
	{Property: "page-break-inside", Value: "auto"},
}

var inheritDeclarations = func() []Declaration {
	out := make([]Declaration, 0, len(inheritedProperties))
	for _, p := range inheritedProperties {
		out = append(out, Declaration{Property: p, Value: "inherit"})
	}
	return out
}()

type computeContext struct {
	parent       *ComputedStyle
	rootFontSize float64
	pxScale      float64
}

func (c computeContext) lengths(fontSize float64) lengthContext {
	return lengthContext{fontSize: fontSize, rootFontSize: c.rootFontSize, pxScale: c.pxScale}
}

// compute turns specified values into a ComputedStyle. Invalid values
// leave the property at its initial (or inherited) value.
func (c computeContext) compute(specified *Style) *ComputedStyle {
	parent := c.parent
	if parent == nil {
		parent = InitialStyle()
	}
	cs := InitialStyle()
	get := func(p string) (string, bool) {
		v, ok := specified.Get(p)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	isInherit := func(v string) bool { return strings.EqualFold(v, "inherit") }

	// font-size first: em units everywhere else depend on it
	cs.FontSize = parent.FontSize
	if v, ok := get("font-size"); ok && !isInherit(v) {
		if fs, ok := c.fontSize(v, parent.FontSize); ok {
			cs.FontSize = fs
		}
	}
	lc := c.lengths(cs.FontSize)

	if v, ok := get("line-height"); ok {
		cs.LineHeight = cs.FontSize * 1.2
		if isInherit(v) {
			cs.LineHeight = parent.LineHeight
			if scale := parent.lineHeightScale; scale > 0 {
				cs.LineHeight = cs.FontSize * scale
				cs.lineHeightScale = scale
			}
		} else if v == "normal" {
			cs.lineHeightScale = 1.2
		} else if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 {
			cs.LineHeight = cs.FontSize * n
			cs.lineHeightScale = n
		} else if l, ok := lc.parse(v); ok && !l.IsAuto() {
			cs.LineHeight = l.Resolve(cs.FontSize)
		}
	}

	if v, ok := get("font-family"); ok {
		if isInherit(v) {
			cs.FontFamily = parent.FontFamily
		} else if fams := ParseFontFamily(v); len(fams) > 0 {
			cs.FontFamily = fams
		}
	}
	if v, ok := get("font-weight"); ok {
		switch {
		case isInherit(v):
			cs.Bold = parent.Bold
		case v == "bolder":
			cs.Bold = true
		case v == "lighter":
			cs.Bold = false
		default:
			cs.Bold = isBoldWeight(v)
		}
	}
	if v, ok := get("font-style"); ok {
		if isInherit(v) {
			cs.Italic = parent.Italic
		} else {
			v = strings.ToLower(v)
			cs.Italic = v == "italic" || v == "oblique"
		}
	}

	cs.Color = parent.Color
	if v, ok := get("color"); ok && !isInherit(v) && !strings.EqualFold(v, "currentcolor") {
		if col, ok := ParseColor(v); ok {
			cs.Color = col
		}
	}
	if v, ok := get("background-color"); ok {
		if isInherit(v) {
			cs.Background = parent.Background
		} else if col, ok := ParseColor(v); ok {
			cs.Background = col
		}
	}

	if v, ok := get("display"); ok {
		if isInherit(v) {
			cs.Display = parent.Display
		} else if d, ok := displayValues[strings.ToLower(v)]; ok {
			cs.Display = d
		}
	}

	if v, ok := get("text-align"); ok {
		switch strings.ToLower(v) {
		case "inherit":
			cs.TextAlign = parent.TextAlign
		case "left", "start", "-webkit-left":
			cs.TextAlign = TextAlignLeft
		case "right", "end", "-webkit-right":
			cs.TextAlign = TextAlignRight
		case "center", "-webkit-center":
			cs.TextAlign = TextAlignCenter
		case "justify":
			cs.TextAlign = TextAlignJustify
		}
	}
	if v, ok := get("text-indent"); ok {
		if isInherit(v) {
			cs.TextIndent = parent.TextIndent
		} else if l, ok := lc.parse(v); ok && l.Unit == UnitPt {
			cs.TextIndent = l.Value
		}
	}
	if v, ok := get("vertical-align"); ok {
		switch strings.ToLower(v) {
		case "top", "text-top":
			cs.VerticalAlign = VerticalAlignTop
		case "middle":
			cs.VerticalAlign = VerticalAlignMiddle
		case "bottom", "text-bottom":
			cs.VerticalAlign = VerticalAlignBottom
		case "baseline":
			cs.VerticalAlign = VerticalAlignBaseline
		case "inherit":
			cs.VerticalAlign = parent.VerticalAlign
		}
	}
	if v, ok := get("white-space"); ok {
		switch ws := WhiteSpace(strings.ToLower(v)); ws {
		case "inherit":
			cs.WhiteSpace = parent.WhiteSpace
		case WhiteSpaceNormal, WhiteSpaceNoWrap, WhiteSpacePre, WhiteSpacePreWrap, WhiteSpacePreLine:
			cs.WhiteSpace = ws
		}
	}
	if v, ok := get("visibility"); ok {
		if isInherit(v) {
			cs.Visible = parent.Visible
		} else {
			cs.Visible = !strings.EqualFold(v, "hidden") && !strings.EqualFold(v, "collapse")
		}
	}

	// decorations propagate to descendants and cannot be cancelled by them
	cs.Underline = parent.Underline
	cs.LineThrough = parent.LineThrough
	if v, ok := get("text-decoration"); ok {
		for _, f := range strings.Fields(strings.ToLower(v)) {
			switch f {
			case "underline":
				cs.Underline = true
			case "line-through":
				cs.LineThrough = true
			}
		}
	}

	cs.Width = c.sizeValue(lc, specified, "width", Auto)
	cs.Height = c.sizeValue(lc, specified, "height", Auto)
	cs.MinWidth = c.sizeValue(lc, specified, "min-width", Pt(0))
	cs.MaxWidth = c.sizeValue(lc, specified, "max-width", Auto)

	for i, side := range sides {
		if v, ok := get("margin-" + side); ok {
			if l, ok := lc.parse(v); ok {
				cs.Margin[i] = l
			}
		}
		if v, ok := get("padding-" + side); ok {
			if l, ok := lc.parse(v); ok && !l.IsAuto() && l.Value >= 0 {
				cs.Padding[i] = l
			}
		}
		cs.BorderColor[i] = cs.Color
		if v, ok := get("border-" + side + "-color"); ok && !strings.EqualFold(v, "currentcolor") {
			if col, ok := ParseColor(v); ok {
				cs.BorderColor[i] = col
			}
		}
		if v, ok := get("border-" + side + "-style"); ok {
			cs.BorderStyle[i] = borderStyleValue(v)
		}
		width := 3 * c.pxScale
		if v, ok := get("border-" + side + "-width"); ok {
			width = c.borderWidth(lc, v)
		}
		switch i {
		case 0:
			cs.BorderWidth.Top = width
		case 1:
			cs.BorderWidth.Right = width
		case 2:
			cs.BorderWidth.Bottom = width
		case 3:
			cs.BorderWidth.Left = width
		}
	}

	if v, ok := get("list-style-type"); ok {
		if isInherit(v) {
			cs.ListStyleType = parent.ListStyleType
		} else if listStyleTypes[strings.ToLower(v)] {
			cs.ListStyleType = strings.ToLower(v)
		}
	}
	if v, ok := get("border-collapse"); ok {
		if isInherit(v) {
			cs.BorderCollapse = parent.BorderCollapse
		} else {
			cs.BorderCollapse = strings.EqualFold(v, "collapse")
		}
	}
	if v, ok := get("border-spacing"); ok {
		if isInherit(v) {
			cs.BorderSpacing = parent.BorderSpacing
		} else if parts := splitValues(v); len(parts) > 0 {
			if l, ok := lc.parse(parts[0]); ok && l.Unit == UnitPt && l.Value >= 0 {
				cs.BorderSpacing = l.Value
			}
		}
	}

	if v, ok := get("page-break-before"); ok {
		cs.BreakBefore = breakValue(v)
	}
	if v, ok := get("page-break-after"); ok {
		cs.BreakAfter = breakValue(v)
	}
	if v, ok := get("page-break-inside"); ok && strings.EqualFold(v, "avoid") {
		cs.BreakInside = BreakAvoid
	}
	return cs
}

func (c computeContext) fontSize(v string, parentSize float64) (float64, bool) {
	v = strings.ToLower(v)
	if pt, ok := fontSizeKeywords[v]; ok {
		return pt, true
	}
	switch v {
	case "smaller":
		return parentSize / 1.2, true
	case "larger":
		return parentSize * 1.2, true
	}
	l, ok := c.lengths(parentSize).parse(v)
	if !ok || l.IsAuto() {
		return 0, false
	}
	size := l.Resolve(parentSize)
	if size < 0 {
		return 0, false
	}
	return size, true
}

func (c computeContext) sizeValue(lc lengthContext, specified *Style, property string, def Length) Length {
	v, ok := specified.Get(property)
	if !ok {
		return def
	}
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "none" {
		return Auto
	}
	l, ok := lc.parse(v)
	if !ok || (!l.IsAuto() && l.Value < 0) {
		return def
	}
	return l
}

func (c computeContext) borderWidth(lc lengthContext, v string) float64 {
	switch strings.ToLower(v) {
	case "thin":
		return 1 * c.pxScale
	case "medium":
		return 3 * c.pxScale
	case "thick":
		return 5 * c.pxScale
	}
	l, ok := lc.parse(v)
	if !ok || l.Unit != UnitPt || l.Value < 0 {
		return 3 * c.pxScale
	}
	return l.Value
}

var displayValues = map[string]DisplayType{
	"block":              DisplayBlock,
	"inline":             DisplayInline,
	"inline-block":       DisplayInlineBlock,
	"list-item":          DisplayListItem,
	"none":               DisplayNone,
	"table":              DisplayTable,
	"inline-table":       DisplayTable,
	"table-row":          DisplayTableRow,
	"table-cell":         DisplayTableCell,
	"table-row-group":    DisplayTableRowGroup,
	"table-header-group": DisplayTableHeaderGroup,
	"table-footer-group": DisplayTableFooterGroup,
	"table-caption":      DisplayTableCaption,
	"table-column":       DisplayTableColumn,
	"table-column-group": DisplayTableColumn,
	"flex":               DisplayBlock,
	"grid":               DisplayBlock,
	"flow-root":          DisplayBlock,
}

func borderStyleValue(v string) BorderStyle {
	switch strings.ToLower(v) {
	case "none", "hidden":
		return BorderNone
	case "dashed":
		return BorderDashed
	case "dotted":
		return BorderDotted
	case "double":
		return BorderDouble
	}
	return BorderSolid
}

func breakValue(v string) BreakType {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "always", "page", "left", "right", "recto", "verso":
		return BreakAlways
	case "avoid", "avoid-page":
		return BreakAvoid
	}
	return BreakAuto
}

func isBoldWeight(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "bold" || v == "bolder" {
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n >= 600
}

// ParseFontFamily splits a font-family value into names, order preserved.
// Quotes are removed; unknown names are kept as written.
func ParseFontFamily(v string) []string {
	var out []string
	for _, part := range splitOutsideParens(v, ',') {
		name := strings.TrimSpace(part)
		name = strings.Trim(name, `"'`)
		name = strings.Join(strings.Fields(name), " ")
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
