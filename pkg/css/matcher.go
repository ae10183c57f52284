package css

import (
	"strings"

	"htmlpdf/pkg/html"
)

// MatchesSelector reports whether element id matches the complex selector,
// matching right to left.
func MatchesSelector(doc *html.Document, id html.NodeID, selector Selector) bool {
	n := doc.Node(id)
	if n == nil || n.Type != html.ElementNode || len(selector.Parts) == 0 {
		return false
	}
	return matchesCompoundSelector(doc, id, selector, len(selector.Parts)-1)
}

func matchesCompoundSelector(doc *html.Document, id html.NodeID, selector Selector, partIndex int) bool {
	if !matchesSelectorPart(doc, id, selector.Parts[partIndex]) {
		return false
	}
	if partIndex == 0 {
		return true
	}

	prev := partIndex - 1
	switch selector.Combinators[prev] {
	case DescendantCombinator:
		for a := parentElement(doc, id); a != html.InvalidNode; a = parentElement(doc, a) {
			if matchesCompoundSelector(doc, a, selector, prev) {
				return true
			}
		}
	case ChildCombinator:
		if p := parentElement(doc, id); p != html.InvalidNode {
			return matchesCompoundSelector(doc, p, selector, prev)
		}
	case AdjacentSiblingCombinator:
		if s := doc.PreviousElementSibling(id); s != html.InvalidNode {
			return matchesCompoundSelector(doc, s, selector, prev)
		}
	case GeneralSiblingCombinator:
		for s := doc.PreviousElementSibling(id); s != html.InvalidNode; s = doc.PreviousElementSibling(s) {
			if matchesCompoundSelector(doc, s, selector, prev) {
				return true
			}
		}
	}
	return false
}

// parentElement skips the synthetic document root.
func parentElement(doc *html.Document, id html.NodeID) html.NodeID {
	p := doc.Node(id).Parent
	if p == html.InvalidNode || doc.Node(p).Type != html.ElementNode {
		return html.InvalidNode
	}
	return p
}

func matchesSelectorPart(doc *html.Document, id html.NodeID, part SelectorPart) bool {
	node := doc.Node(id)
	if part.Element != "" && part.Element != "*" && node.TagName != part.Element {
		return false
	}
	if part.ID != "" {
		if v, ok := node.GetAttribute("id"); !ok || v != part.ID {
			return false
		}
	}
	if len(part.Classes) > 0 {
		classAttr, ok := node.GetAttribute("class")
		if !ok {
			return false
		}
		have := strings.Fields(classAttr)
		for _, want := range part.Classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	for _, attr := range part.Attributes {
		if !matchesAttributeSelector(node, attr) {
			return false
		}
	}
	for _, pc := range part.PseudoClasses {
		if !matchesPseudoClass(doc, id, pc) {
			return false
		}
	}
	return true
}

// matchesPseudoClass supports the structural pseudo-classes that make sense
// for static output. Dynamic ones (hover, focus, ...) never match.
func matchesPseudoClass(doc *html.Document, id html.NodeID, pc string) bool {
	switch pc {
	case "first-child":
		return doc.PreviousElementSibling(id) == html.InvalidNode
	case "last-child":
		return doc.NextElementSibling(id) == html.InvalidNode
	case "only-child":
		return doc.PreviousElementSibling(id) == html.InvalidNode && doc.NextElementSibling(id) == html.InvalidNode
	case "root":
		return parentElement(doc, id) == html.InvalidNode
	case "link", "any-link":
		_, ok := doc.Attr(id, "href")
		return ok && doc.Node(id).TagName == "a"
	}
	return false
}

func matchesAttributeSelector(node *html.Node, attr AttributeSelector) bool {
	value, ok := node.GetAttribute(attr.Name)
	if !ok {
		return false
	}
	switch attr.Operator {
	case "":
		return true
	case "=":
		return value == attr.Value
	case "^=":
		return attr.Value != "" && strings.HasPrefix(value, attr.Value)
	case "$=":
		return attr.Value != "" && strings.HasSuffix(value, attr.Value)
	case "*=":
		return attr.Value != "" && strings.Contains(value, attr.Value)
	case "~=":
		return containsString(strings.Fields(value), attr.Value)
	case "|=":
		return value == attr.Value || strings.HasPrefix(value, attr.Value+"-")
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
