package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
)

// listItemNumber returns the ordinal of a list item: ol start and
// reversed, and li value, are honored.
func (le *LayoutEngine) listItemNumber(id html.NodeID) int {
	n := le.doc.Node(id)
	if n == nil || n.Parent == html.InvalidNode {
		return 1
	}
	parent := le.doc.Node(n.Parent)
	var items []html.NodeID
	for _, c := range parent.Children {
		if le.doc.Node(c).Type == html.ElementNode && le.style(c).Display == css.DisplayListItem {
			items = append(items, c)
		}
	}

	start, step := 1, 1
	if parent.Atom == atom.Ol {
		if _, ok := parent.GetAttribute("reversed"); ok {
			step = -1
			start = len(items)
		}
		if v, ok := attrInt(parent, "start"); ok {
			start = v
		}
	}
	value := start - step
	for _, item := range items {
		if v, ok := attrInt(le.doc.Node(item), "value"); ok {
			value = v
		} else {
			value += step
		}
		if item == id {
			break
		}
	}
	return value
}

func attrInt(n *html.Node, name string) (int, bool) {
	v, ok := n.GetAttribute(name)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	return i, err == nil
}

// glyphMarker reports list styles drawn as shapes rather than text.
func glyphMarker(listStyle string) bool {
	switch listStyle {
	case "disc", "circle", "square":
		return true
	}
	return false
}

// markerText formats n for a textual list-style-type.
func markerText(listStyle string, n int) string {
	switch listStyle {
	case "decimal-leading-zero":
		if n >= 0 && n < 10 {
			return "0" + strconv.Itoa(n) + "."
		}
	case "lower-alpha", "lower-latin":
		if n > 0 {
			return alphabetic(n, 'a') + "."
		}
	case "upper-alpha", "upper-latin":
		if n > 0 {
			return alphabetic(n, 'A') + "."
		}
	case "lower-roman":
		if n > 0 && n < 4000 {
			return strings.ToLower(roman(n)) + "."
		}
	case "upper-roman":
		if n > 0 && n < 4000 {
			return roman(n) + "."
		}
	}
	return strconv.Itoa(n) + "."
}

// alphabetic counts a, b, ... z, aa, ab, ...
func alphabetic(n int, first byte) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{first + byte(n%26)}, b...)
		n /= 26
	}
	return string(b)
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func roman(n int) string {
	var sb strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}
