package css

import (
	"strings"
)

// Style is a bag of specified property values, keyed by longhand name.
type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

// Declaration is one longhand property assignment.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// ParseInlineStyle parses the contents of a style attribute.
func ParseInlineStyle(styleAttr string) []Declaration {
	return ParseDeclarations(styleAttr)
}

// ParseDeclarations parses "prop: value; ..." and expands shorthands.
// Declarations without a colon or value are skipped.
func ParseDeclarations(text string) []Declaration {
	var out []Declaration
	for _, part := range splitOutsideParens(stripComments(text), ';') {
		part = strings.TrimSpace(part)
		colon := strings.IndexByte(part, ':')
		if colon <= 0 {
			continue
		}
		property := strings.ToLower(strings.TrimSpace(part[:colon]))
		value := strings.TrimSpace(part[colon+1:])
		important := false
		if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
			important = true
			value = strings.TrimSpace(value[:i])
		}
		if property == "" || value == "" {
			continue
		}
		for _, d := range expandShorthand(property, value) {
			d.Important = important
			out = append(out, d)
		}
	}
	return out
}

var sides = [4]string{"top", "right", "bottom", "left"}

// expandShorthand expands shorthand CSS properties into longhands.
func expandShorthand(property, value string) []Declaration {
	switch property {
	case "margin", "padding":
		return expandBoxProperty(property+"-%s", value)
	case "border-width":
		return expandBoxProperty("border-%s-width", value)
	case "border-style":
		return expandBoxProperty("border-%s-style", value)
	case "border-color":
		return expandBoxProperty("border-%s-color", value)
	case "border":
		var out []Declaration
		for _, side := range sides {
			out = append(out, expandBorderSide(side, value)...)
		}
		return out
	case "border-top", "border-right", "border-bottom", "border-left":
		return expandBorderSide(strings.TrimPrefix(property, "border-"), value)
	case "background":
		return expandBackground(value)
	case "font":
		return expandFont(value)
	case "list-style":
		for _, part := range splitValues(value) {
			if listStyleTypes[strings.ToLower(part)] {
				return []Declaration{{Property: "list-style-type", Value: part}}
			}
		}
		return nil
	case "break-before", "break-after", "break-inside":
		return []Declaration{{Property: "page-" + property, Value: value}}
	}
	return []Declaration{{Property: property, Value: value}}
}

// expandBoxProperty expands the 1-4 value side shorthand. pattern holds a
// %s for the side name.
func expandBoxProperty(pattern, value string) []Declaration {
	parts := splitValues(value)
	var t, r, b, l string
	switch len(parts) {
	case 1:
		t, r, b, l = parts[0], parts[0], parts[0], parts[0]
	case 2:
		t, r, b, l = parts[0], parts[1], parts[0], parts[1]
	case 3:
		t, r, b, l = parts[0], parts[1], parts[2], parts[1]
	case 4:
		t, r, b, l = parts[0], parts[1], parts[2], parts[3]
	default:
		return nil
	}
	vals := [4]string{t, r, b, l}
	out := make([]Declaration, 0, 4)
	for i, side := range sides {
		out = append(out, Declaration{Property: strings.Replace(pattern, "%s", side, 1), Value: vals[i]})
	}
	return out
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "solid": true, "dashed": true, "dotted": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

var borderWidthKeywords = map[string]bool{"thin": true, "medium": true, "thick": true}

// expandBorderSide expands "1px solid black" for one side. Omitted parts
// reset to their initial values.
func expandBorderSide(side, value string) []Declaration {
	width, style, color := "medium", "none", "currentcolor"
	for _, part := range splitValues(value) {
		lower := strings.ToLower(part)
		switch {
		case borderStyles[lower]:
			style = lower
		case borderWidthKeywords[lower]:
			width = lower
		default:
			if _, ok := ParseLength(lower); ok {
				width = lower
			} else {
				color = part
			}
		}
	}
	prefix := "border-" + side
	return []Declaration{
		{Property: prefix + "-width", Value: width},
		{Property: prefix + "-style", Value: style},
		{Property: prefix + "-color", Value: color},
	}
}

func expandBackground(value string) []Declaration {
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return []Declaration{{Property: "background-color", Value: "transparent"}}
	}
	for _, part := range splitValues(value) {
		if _, ok := ParseColor(part); ok {
			return []Declaration{{Property: "background-color", Value: part}}
		}
	}
	return nil
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 7.5, "x-small": 9, "small": 10, "medium": 12,
	"large": 13.5, "x-large": 18, "xx-large": 24, "xxx-large": 36,
}

// expandFont parses "[style] [variant] [weight] size[/line-height] family".
func expandFont(value string) []Declaration {
	parts := splitValues(value)
	var out []Declaration
	for i, part := range parts {
		lower := strings.ToLower(part)
		switch lower {
		case "italic", "oblique":
			out = append(out, Declaration{Property: "font-style", Value: lower})
			continue
		case "bold", "bolder", "lighter", "100", "200", "300", "400", "500", "600", "700", "800", "900":
			out = append(out, Declaration{Property: "font-weight", Value: lower})
			continue
		case "normal", "small-caps":
			continue
		}
		size, lineHeight, _ := strings.Cut(part, "/")
		if _, kw := fontSizeKeywords[strings.ToLower(size)]; !kw {
			if _, ok := ParseLength(size); !ok && !strings.HasSuffix(size, "%") && !strings.HasSuffix(size, "em") {
				return nil
			}
		}
		out = append(out, Declaration{Property: "font-size", Value: size})
		if lineHeight != "" {
			out = append(out, Declaration{Property: "line-height", Value: lineHeight})
		}
		if family := strings.Join(parts[i+1:], " "); family != "" {
			out = append(out, Declaration{Property: "font-family", Value: family})
		}
		return out
	}
	return nil
}

var listStyleTypes = map[string]bool{
	"disc": true, "circle": true, "square": true, "decimal": true, "decimal-leading-zero": true,
	"lower-alpha": true, "upper-alpha": true, "lower-latin": true, "upper-latin": true,
	"lower-roman": true, "upper-roman": true, "none": true,
}

// splitValues splits on whitespace, keeping parenthesised groups whole.
func splitValues(value string) []string {
	var out []string
	depth, start := 0, -1
	for i, r := range value {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if start >= 0 {
				out = append(out, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, value[start:])
	}
	return out
}

// splitOutsideParens splits on sep where it is not inside parentheses or quotes.
func splitOutsideParens(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func stripComments(s string) string {
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			return s[:start]
		}
		s = s[:start] + " " + s[start+2+end+2:]
	}
}
