package html

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// Parser builds a Document from a token stream, repairing the tree the
// way browsers do for the common cases: implicit html/head/body, void
// elements, auto-closed paragraphs, list items and table cells.
type Parser struct {
	tokenizer *Tokenizer
	doc       *Document
	stack     []NodeID
	html      NodeID
	head      NodeID
	body      NodeID
}

func NewParser(markup string) *Parser {
	doc := NewDocument()
	return &Parser{
		tokenizer: NewTokenizer(markup),
		doc:       doc,
		stack:     []NodeID{doc.Root},
		html:      InvalidNode,
		head:      InvalidNode,
		body:      InvalidNode,
	}
}

// Parse never fails. Empty input yields a root without children.
func Parse(markup string) *Document {
	return NewParser(markup).Parse()
}

func (p *Parser) Parse() *Document {
	for {
		tok := p.tokenizer.NextToken()
		switch tok.Type {
		case TokenEOF:
			return p.doc
		case TokenStartTag:
			p.startTag(tok)
		case TokenEndTag:
			p.endTag(tok.TagName)
		case TokenText:
			p.text(tok.Text)
		}
	}
}

func (p *Parser) startTag(tok Token) {
	a := atom.Lookup([]byte(tok.TagName))
	switch a {
	case atom.Html:
		p.ensureHTML()
		p.mergeAttributes(p.html, tok.Attributes)
		return
	case atom.Head:
		if p.body == InvalidNode && p.head == InvalidNode {
			p.ensureHead()
			p.push(p.head)
		}
		return
	case atom.Body:
		p.ensureBody()
		p.mergeAttributes(p.body, tok.Attributes)
		return
	case atom.Style:
		content := p.tokenizer.ReadRawUntil("style")
		p.doc.Styles = append(p.doc.Styles, StyleRef{Text: content, Media: tok.Attributes["media"]})
		return
	case atom.Script:
		p.tokenizer.ReadRawUntil("script")
		return
	case atom.Title:
		content := p.tokenizer.ReadRawUntil("title")
		if p.doc.Title == "" {
			p.doc.Title = strings.Join(strings.Fields(unescape(content)), " ")
		}
		return
	}

	if headOnly[a] && p.body == InvalidNode {
		p.ensureHead()
		id := p.doc.CreateElement(tok.TagName, tok.Attributes)
		p.doc.AppendChild(p.head, id)
		p.headSideEffects(a, tok.Attributes)
		return
	}

	p.ensureBody()
	p.repairBefore(a)

	id := p.doc.CreateElement(tok.TagName, tok.Attributes)
	p.doc.AppendChild(p.current(), id)
	p.headSideEffects(a, tok.Attributes)

	if a == atom.Textarea {
		p.doc.AppendText(id, unescape(p.tokenizer.ReadRawUntil("textarea")))
		return
	}
	if IsVoidElement(a) || tok.SelfClosing {
		return
	}
	p.push(id)
}

// headSideEffects records document level data carried by link and base.
func (p *Parser) headSideEffects(a atom.Atom, attrs map[string]string) {
	switch a {
	case atom.Link:
		rel := strings.ToLower(attrs["rel"])
		href := strings.TrimSpace(attrs["href"])
		if href != "" && containsWord(rel, "stylesheet") && !containsWord(rel, "alternate") {
			p.doc.Styles = append(p.doc.Styles, StyleRef{Href: href, Media: attrs["media"]})
		}
	case atom.Base:
		if href := strings.TrimSpace(attrs["href"]); href != "" && p.doc.BaseHref == "" {
			p.doc.BaseHref = href
		}
	}
}

func (p *Parser) endTag(name string) {
	a := atom.Lookup([]byte(name))
	switch a {
	case atom.Head:
		if p.head != InvalidNode {
			p.popTo(p.head)
		}
		return
	case atom.Body, atom.Html:
		// content after </body> still belongs to the body
		return
	case atom.Br:
		p.ensureBody()
		p.doc.AppendChild(p.current(), p.doc.CreateElement("br", nil))
		return
	}
	p.closeTag(name)
}

func (p *Parser) text(s string) {
	if strings.TrimSpace(s) == "" {
		if p.body == InvalidNode || dropsWhitespace[p.doc.Node(p.current()).Atom] {
			return
		}
		p.doc.AppendText(p.current(), s)
		return
	}
	p.ensureBody()
	p.doc.AppendText(p.current(), s)
}

// repairBefore applies the implied end tags for a new element a.
func (p *Parser) repairBefore(a atom.Atom) {
	switch a {
	case atom.Li:
		p.closeOpen(atom.Li, atom.Ul, atom.Ol)
	case atom.Dt, atom.Dd:
		p.closeOpen(atom.Dt, atom.Dl)
		p.closeOpen(atom.Dd, atom.Dl)
	case atom.Tr:
		p.closeOpen(atom.Tr, atom.Table, atom.Tbody, atom.Thead, atom.Tfoot)
	case atom.Td, atom.Th:
		p.closeOpen(atom.Td, atom.Tr, atom.Table)
		p.closeOpen(atom.Th, atom.Tr, atom.Table)
	case atom.Thead, atom.Tbody, atom.Tfoot:
		p.closeOpen(atom.Thead, atom.Table)
		p.closeOpen(atom.Tbody, atom.Table)
		p.closeOpen(atom.Tfoot, atom.Table)
	case atom.Option:
		p.closeOpen(atom.Option, atom.Select)
	}
	if IsBlockElement(a) {
		p.autoCloseP()
	}
}

func (p *Parser) ensureHTML() {
	if p.html != InvalidNode {
		return
	}
	p.html = p.doc.CreateElement("html", nil)
	p.doc.AppendChild(p.doc.Root, p.html)
	p.stack = []NodeID{p.doc.Root, p.html}
}

func (p *Parser) ensureHead() {
	p.ensureHTML()
	if p.head != InvalidNode {
		return
	}
	p.head = p.doc.CreateElement("head", nil)
	p.doc.AppendChild(p.html, p.head)
}

func (p *Parser) ensureBody() {
	p.ensureHTML()
	if p.body != InvalidNode {
		return
	}
	p.popTo(p.html)
	p.push(p.html)
	p.body = p.doc.CreateElement("body", nil)
	p.doc.AppendChild(p.html, p.body)
	p.push(p.body)
}

func (p *Parser) mergeAttributes(id NodeID, attrs map[string]string) {
	n := p.doc.Node(id)
	for k, v := range attrs {
		if _, ok := n.Attributes[k]; !ok {
			n.Attributes[k] = v
		}
	}
}

func (p *Parser) current() NodeID {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) push(id NodeID) {
	p.stack = append(p.stack, id)
}

// popTo removes id and everything above it from the stack.
func (p *Parser) popTo(id NodeID) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i] == id {
			p.stack = p.stack[:i]
			return
		}
	}
}

// floor is the lowest stack index an end tag may close.
func (p *Parser) floor() int {
	for i, id := range p.stack {
		if id == p.body {
			return i + 1
		}
	}
	return 1
}

// closeTag pops to the nearest open element named tagName. End tags with
// no open match are ignored.
func (p *Parser) closeTag(tagName string) {
	for i := len(p.stack) - 1; i >= p.floor(); i-- {
		if p.doc.Node(p.stack[i]).TagName == tagName {
			p.stack = p.stack[:i]
			return
		}
	}
}

// closeOpen closes an open a unless one of the boundary elements is
// reached first.
func (p *Parser) closeOpen(a atom.Atom, boundaries ...atom.Atom) {
	for i := len(p.stack) - 1; i >= p.floor(); i-- {
		cur := p.doc.Node(p.stack[i]).Atom
		if cur == a {
			p.stack = p.stack[:i]
			return
		}
		for _, b := range boundaries {
			if cur == b {
				return
			}
		}
	}
}

// autoCloseP closes an open <p> unless a block container intervenes.
func (p *Parser) autoCloseP() {
	for i := len(p.stack) - 1; i >= p.floor(); i-- {
		cur := p.doc.Node(p.stack[i]).Atom
		if cur == atom.P {
			p.stack = p.stack[:i]
			return
		}
		if IsBlockElement(cur) || cur == atom.Td || cur == atom.Th || cur == atom.Button {
			return
		}
	}
}

func containsWord(s, word string) bool {
	for _, f := range strings.Fields(s) {
		if f == word {
			return true
		}
	}
	return false
}
