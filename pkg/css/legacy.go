package css

import (
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"

	"htmlpdf/pkg/html"
)

// LegacyFontSizes maps <font size=1..7> to points. Size 3 is the medium
// font size.
var LegacyFontSizes = [8]float64{0, 7.5, 10, 12, 13.5, 18, 24, 36}

// LegacyFontSize resolves a size attribute: an absolute 1..7, or +n/-n
// relative to 3. Out of range values clamp.
func LegacyFontSize(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	rel := v[0] == '+' || v[0] == '-'
	n, err := strconv.Atoi(strings.TrimPrefix(v, "+"))
	if err != nil {
		return 0, false
	}
	if rel {
		n += 3
	}
	if n < 1 {
		n = 1
	}
	if n > 7 {
		n = 7
	}
	return LegacyFontSizes[n], true
}

// PresentationalDeclarations maps legacy HTML attributes on id to CSS
// declarations.
func PresentationalDeclarations(doc *html.Document, id html.NodeID) []Declaration {
	n := doc.Node(id)
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	var out []Declaration
	add := func(property, value string) {
		out = append(out, Declaration{Property: property, Value: value})
	}
	attr := func(name string) (string, bool) {
		v, ok := n.GetAttribute(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	switch n.Atom {
	case atom.Font:
		if face, ok := attr("face"); ok {
			add("font-family", face)
		}
		if size, ok := attr("size"); ok {
			if pt, ok := LegacyFontSize(size); ok {
				add("font-size", strconv.FormatFloat(pt, 'f', -1, 64)+"pt")
			}
		}
		if color, ok := attr("color"); ok {
			add("color", legacyColor(color))
		}
	case atom.Body:
		if c, ok := attr("text"); ok {
			add("color", legacyColor(c))
		}
	case atom.Table:
		if b, ok := n.GetAttribute("border"); ok {
			w := legacyBorderWidth(b)
			for _, side := range sides {
				add("border-"+side+"-width", strconv.Itoa(w)+"px")
				add("border-"+side+"-style", "outset")
				add("border-"+side+"-color", "gray")
			}
		}
		if s, ok := attr("cellspacing"); ok {
			add("border-spacing", legacyLength(s))
		}
		if a, ok := attr("align"); ok && strings.EqualFold(a, "center") {
			add("margin-left", "auto")
			add("margin-right", "auto")
		}
	case atom.Td, atom.Th:
		if table := doc.Ancestor(id, "table"); table != html.InvalidNode {
			tn := doc.Node(table)
			if b, ok := tn.GetAttribute("border"); ok && legacyBorderWidth(b) > 0 {
				for _, side := range sides {
					add("border-"+side+"-width", "1px")
					add("border-"+side+"-style", "inset")
					add("border-"+side+"-color", "gray")
				}
			}
			if p, ok := tn.GetAttribute("cellpadding"); ok && strings.TrimSpace(p) != "" {
				for _, side := range sides {
					add("padding-"+side, legacyLength(p))
				}
			}
		}
		if _, ok := n.GetAttribute("nowrap"); ok {
			add("white-space", "nowrap")
		}
	case atom.Img:
		if b, ok := attr("border"); ok {
			w := legacyBorderWidth(b)
			for _, side := range sides {
				add("border-"+side+"-width", strconv.Itoa(w)+"px")
				add("border-"+side+"-style", "solid")
			}
		}
	case atom.Hr:
		if s, ok := attr("size"); ok {
			add("border-top-width", legacyLength(s))
		}
		if c, ok := attr("color"); ok {
			add("border-top-color", legacyColor(c))
		}
	}

	switch n.Atom {
	case atom.Ol, atom.Ul, atom.Li:
		if t, ok := attr("type"); ok {
			if style, ok := legacyListTypes[t]; ok {
				add("list-style-type", style)
			} else if style, ok := legacyListTypes[strings.ToLower(t)]; ok {
				add("list-style-type", style)
			}
		}
	}
	switch n.Atom {
	case atom.Body, atom.Table, atom.Tr, atom.Td, atom.Th:
		if c, ok := attr("bgcolor"); ok {
			add("background-color", legacyColor(c))
		}
	}
	switch n.Atom {
	case atom.Table, atom.Td, atom.Th, atom.Img, atom.Hr, atom.Col:
		if w, ok := attr("width"); ok {
			add("width", legacyLength(w))
		}
	}
	switch n.Atom {
	case atom.Table, atom.Tr, atom.Td, atom.Th, atom.Img:
		if h, ok := attr("height"); ok {
			add("height", legacyLength(h))
		}
	}
	switch n.Atom {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Tr, atom.Td, atom.Th, atom.Caption, atom.Thead, atom.Tbody, atom.Tfoot:
		if a, ok := attr("align"); ok {
			switch strings.ToLower(a) {
			case "left", "right", "center", "justify":
				add("text-align", strings.ToLower(a))
			}
		}
	}
	switch n.Atom {
	case atom.Tr, atom.Td, atom.Th, atom.Thead, atom.Tbody, atom.Tfoot:
		if v, ok := attr("valign"); ok {
			add("vertical-align", strings.ToLower(v))
		}
	}
	return out
}

// legacyColor accepts the bare hex form ("ff0000") legacy markup uses.
func legacyColor(v string) string {
	if _, ok := ParseColor(v); ok {
		return v
	}
	if _, ok := parseHexColor(v); ok {
		return "#" + v
	}
	return v
}

// legacyLength turns "100" into "100px" and keeps "50%".
func legacyLength(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v + "px"
	}
	return v
}

// legacyBorderWidth reads a border attribute. A bare attribute means 1.
func legacyBorderWidth(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// legacyListTypes maps the type attribute of ol, ul and li. The numbering
// letters are case sensitive, the bullet names are not.
var legacyListTypes = map[string]string{
	"1":      "decimal",
	"a":      "lower-alpha",
	"A":      "upper-alpha",
	"i":      "lower-roman",
	"I":      "upper-roman",
	"disc":   "disc",
	"circle": "circle",
	"square": "square",
}
