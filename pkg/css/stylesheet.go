package css

import (
	"strings"
)

// Rule represents a CSS rule (one selector + its declarations). A rule
// with a selector group is stored once per selector.
type Rule struct {
	Selector     Selector
	Declarations []Declaration
	Order        int
}

// FontFace is an @font-face rule.
type FontFace struct {
	Family  string
	Sources []string
	Bold    bool
	Italic  bool
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules     []Rule
	FontFaces []FontFace
	Imports   []string
}

// ParseStylesheet never fails; malformed rules are skipped.
func ParseStylesheet(text string) *Stylesheet {
	sheet := &Stylesheet{}
	parseRules(sheet, stripComments(text))
	return sheet
}

func parseRules(sheet *Stylesheet, css string) {
	i := 0
	for i < len(css) {
		for i < len(css) && isSpace(css[i]) {
			i++
		}
		if i >= len(css) {
			return
		}
		if css[i] == '}' || css[i] == ';' {
			i++
			continue
		}
		if strings.HasPrefix(css[i:], "<!--") || strings.HasPrefix(css[i:], "-->") {
			i += 3
			if css[i-1] == '-' {
				i++
			}
			continue
		}

		open := indexOutsideQuotes(css[i:], '{')
		semi := indexOutsideQuotes(css[i:], ';')
		if css[i] == '@' && semi >= 0 && (open < 0 || semi < open) {
			parseAtStatement(sheet, strings.TrimSpace(css[i:i+semi]))
			i += semi + 1
			continue
		}
		if open < 0 {
			return
		}
		prelude := strings.TrimSpace(css[i : i+open])
		bodyStart := i + open + 1
		bodyEnd := matchingBrace(css, bodyStart)
		body := css[bodyStart:bodyEnd]
		i = bodyEnd + 1

		if strings.HasPrefix(prelude, "@") {
			parseAtBlock(sheet, prelude, body)
			continue
		}
		selectors, ok := ParseSelectorGroup(prelude)
		if !ok {
			continue
		}
		decls := ParseDeclarations(body)
		if len(decls) == 0 {
			continue
		}
		for _, sel := range selectors {
			sheet.Rules = append(sheet.Rules, Rule{Selector: sel, Declarations: decls, Order: len(sheet.Rules)})
		}
	}
}

func parseAtStatement(sheet *Stylesheet, stmt string) {
	name, rest := atKeyword(stmt)
	if name != "import" {
		return
	}
	fields := splitValues(rest)
	if len(fields) == 0 {
		return
	}
	url := unquoteURL(fields[0])
	if len(fields) > 1 && !MediaApplies(strings.Join(fields[1:], " ")) {
		return
	}
	if url != "" {
		sheet.Imports = append(sheet.Imports, url)
	}
}

func parseAtBlock(sheet *Stylesheet, prelude, body string) {
	name, rest := atKeyword(prelude)
	switch name {
	case "media":
		if MediaApplies(rest) {
			parseRules(sheet, body)
		}
	case "font-face":
		if ff, ok := parseFontFace(body); ok {
			sheet.FontFaces = append(sheet.FontFaces, ff)
		}
	}
	// @page, @keyframes, @supports and friends are ignored
}

func parseFontFace(body string) (FontFace, bool) {
	var ff FontFace
	for _, d := range ParseDeclarations(body) {
		switch d.Property {
		case "font-family":
			ff.Family = strings.Trim(strings.TrimSpace(d.Value), `"'`)
		case "src":
			for _, src := range splitOutsideParens(d.Value, ',') {
				src = strings.TrimSpace(src)
				if !strings.HasPrefix(strings.ToLower(src), "url(") {
					continue
				}
				if u := unquoteURL(src); u != "" {
					ff.Sources = append(ff.Sources, u)
				}
			}
		case "font-weight":
			ff.Bold = isBoldWeight(d.Value)
		case "font-style":
			v := strings.ToLower(d.Value)
			ff.Italic = v == "italic" || v == "oblique"
		}
	}
	return ff, ff.Family != "" && len(ff.Sources) > 0
}

// MediaApplies reports whether a media query list selects paged output.
// An empty list applies everywhere.
func MediaApplies(media string) bool {
	media = strings.TrimSpace(strings.ToLower(media))
	if media == "" {
		return true
	}
	for _, q := range strings.Split(media, ",") {
		words := strings.Fields(q)
		if len(words) == 0 {
			continue
		}
		negate := false
		if words[0] == "only" {
			words = words[1:]
		} else if words[0] == "not" {
			negate = true
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}
		matches := words[0] == "all" || words[0] == "print"
		if negate {
			matches = !matches
		}
		if matches {
			return true
		}
	}
	return false
}

func atKeyword(s string) (string, string) {
	s = strings.TrimPrefix(s, "@")
	n := identLen(s)
	return strings.ToLower(s[:n]), strings.TrimSpace(s[n:])
}

// unquoteURL accepts url(x), url("x") and "x".
func unquoteURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "url(") {
		inner := strings.TrimSpace(s[4:])
		if inner != "" && (inner[0] == '"' || inner[0] == '\'') {
			if end := strings.IndexByte(inner[1:], inner[0]); end >= 0 {
				return inner[1 : 1+end]
			}
		}
		end := strings.IndexByte(inner, ')')
		if end < 0 {
			end = len(inner)
		}
		s = inner[:end]
	}
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// matchingBrace returns the index of the '}' closing the block that starts
// at from, or len(css) when the block is unterminated.
func matchingBrace(css string, from int) int {
	depth := 1
	var quote byte
	for i := from; i < len(css); i++ {
		c := css[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(css)
}

func indexOutsideQuotes(s string, target byte) int {
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
		case c == target:
			return i
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
