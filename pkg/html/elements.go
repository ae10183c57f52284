package html

import (
	gohtml "html"

	"golang.org/x/net/html/atom"
)

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Keygen: true, atom.Link: true, atom.Meta: true, atom.Param: true,
	atom.Source: true, atom.Track: true, atom.Wbr: true,
}

// blockElements close an open <p> when they start.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Center: true, atom.Details: true, atom.Dialog: true, atom.Dd: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hgroup: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Ul: true,
}

var headOnly = map[atom.Atom]bool{
	atom.Meta: true, atom.Link: true, atom.Base: true,
}

// dropsWhitespace lists containers whose whitespace-only text children
// carry no meaning.
var dropsWhitespace = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Table: true, atom.Thead: true,
	atom.Tbody: true, atom.Tfoot: true, atom.Tr: true, atom.Ul: true,
	atom.Ol: true, atom.Dl: true, atom.Select: true, atom.Colgroup: true,
}

// IsVoidElement reports elements that never have children.
func IsVoidElement(a atom.Atom) bool {
	return voidElements[a]
}

// IsBlockElement reports elements that implicitly close a paragraph.
func IsBlockElement(a atom.Atom) bool {
	return blockElements[a]
}

func unescape(s string) string {
	return gohtml.UnescapeString(s)
}
