package css

import (
	"strings"
)

// Specificity is the (ids, classes, types) triple.
type Specificity struct {
	A, B, C int
}

func (s Specificity) Less(o Specificity) bool {
	if s.A != o.A {
		return s.A < o.A
	}
	if s.B != o.B {
		return s.B < o.B
	}
	return s.C < o.C
}

type Combinator int

const (
	DescendantCombinator Combinator = iota
	ChildCombinator
	AdjacentSiblingCombinator
	GeneralSiblingCombinator
)

type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "~=", "|=", "^=", "$=", "*="
	Value    string
}

// SelectorPart is one compound selector, e.g. div.note#main[lang].
type SelectorPart struct {
	Element       string
	ID            string
	Classes       []string
	Attributes    []AttributeSelector
	PseudoClasses []string
}

// Selector is a complex selector: Parts joined by Combinators, leftmost first.
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator
	Specificity Specificity
}

// ParseSelectorGroup splits "a, b > c" into its selectors. Invalid members
// drop the whole group, as browsers do.
func ParseSelectorGroup(text string) ([]Selector, bool) {
	var out []Selector
	for _, raw := range splitOutsideParens(text, ',') {
		sel, ok := ParseSelector(raw)
		if !ok {
			return nil, false
		}
		out = append(out, sel)
	}
	return out, len(out) > 0
}

func ParseSelector(raw string) (Selector, bool) {
	raw = strings.TrimSpace(raw)
	sel := Selector{Raw: raw}
	if raw == "" {
		return sel, false
	}

	i := 0
	pending := DescendantCombinator
	for i < len(raw) {
		// combinators and whitespace
		sawSpace := false
		explicit := false
		for i < len(raw) {
			c := raw[i]
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				sawSpace = true
				i++
				continue
			}
			if c == '>' || c == '+' || c == '~' {
				if explicit || len(sel.Parts) == 0 {
					return sel, false
				}
				explicit = true
				switch c {
				case '>':
					pending = ChildCombinator
				case '+':
					pending = AdjacentSiblingCombinator
				case '~':
					pending = GeneralSiblingCombinator
				}
				i++
				continue
			}
			break
		}
		if i >= len(raw) {
			if explicit {
				return sel, false
			}
			break
		}
		if len(sel.Parts) > 0 {
			if !explicit && !sawSpace {
				return sel, false
			}
			if !explicit {
				pending = DescendantCombinator
			}
			sel.Combinators = append(sel.Combinators, pending)
		}
		part, n, ok := parseCompound(raw[i:])
		if !ok {
			return sel, false
		}
		sel.Parts = append(sel.Parts, part)
		i += n
	}

	for _, p := range sel.Parts {
		if p.ID != "" {
			sel.Specificity.A++
		}
		sel.Specificity.B += len(p.Classes) + len(p.Attributes) + len(p.PseudoClasses)
		if p.Element != "" && p.Element != "*" {
			sel.Specificity.C++
		}
	}
	return sel, len(sel.Parts) > 0
}

// parseCompound reads one compound selector and returns the bytes consumed.
func parseCompound(s string) (SelectorPart, int, bool) {
	var part SelectorPart
	i := 0
	if i < len(s) && (s[i] == '*' || isIdentStart(s[i])) {
		n := identLen(s[i:])
		if s[i] == '*' {
			n = 1
		}
		part.Element = strings.ToLower(s[i : i+n])
		i += n
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			n := identLen(s[i+1:])
			if n == 0 {
				return part, i, false
			}
			part.ID = s[i+1 : i+1+n]
			i += 1 + n
		case '.':
			n := identLen(s[i+1:])
			if n == 0 {
				return part, i, false
			}
			part.Classes = append(part.Classes, s[i+1:i+1+n])
			i += 1 + n
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return part, i, false
			}
			attr, ok := parseAttributeSelector(s[i+1 : i+end])
			if !ok {
				return part, i, false
			}
			part.Attributes = append(part.Attributes, attr)
			i += end + 1
		case ':':
			j := i + 1
			if j < len(s) && s[j] == ':' {
				// pseudo-elements never match a box we generate
				return part, i, false
			}
			n := identLen(s[j:])
			if n == 0 {
				return part, i, false
			}
			name := strings.ToLower(s[j : j+n])
			j += n
			if j < len(s) && s[j] == '(' {
				end := strings.IndexByte(s[j:], ')')
				if end < 0 {
					return part, i, false
				}
				name += s[j : j+end+1]
				j += end + 1
			}
			part.PseudoClasses = append(part.PseudoClasses, name)
			i = j
		default:
			return part, i, i > 0
		}
	}
	return part, i, i > 0
}

func parseAttributeSelector(body string) (AttributeSelector, bool) {
	body = strings.TrimSpace(body)
	for _, op := range []string{"~=", "|=", "^=", "$=", "*=", "="} {
		if idx := strings.Index(body, op); idx > 0 {
			name := strings.ToLower(strings.TrimSpace(body[:idx]))
			value := strings.Trim(strings.TrimSpace(body[idx+len(op):]), `"'`)
			return AttributeSelector{Name: name, Operator: op, Value: value}, name != ""
		}
	}
	if identLen(body) != len(body) || body == "" {
		return AttributeSelector{}, false
	}
	return AttributeSelector{Name: strings.ToLower(body)}, true
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-' || c >= 0x80
}

func identLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if isIdentStart(c) || (c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	return n
}
