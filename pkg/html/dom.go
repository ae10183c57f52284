package html

import (
	"sort"
	"strings"

	"golang.org/x/net/html/atom"
)

// NodeID addresses a node inside its Document's arena.
type NodeID int32

// InvalidNode is returned by lookups that find nothing.
const InvalidNode NodeID = -1

type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
)

// Node is one entry of the document arena. Children are owned handles,
// Parent is a lookup-only back reference.
type Node struct {
	ID         NodeID
	Type       NodeType
	TagName    string
	Atom       atom.Atom
	Attributes map[string]string
	Text       string
	Parent     NodeID
	Children   []NodeID
}

// StyleRef is a stylesheet in document order: either inline text from a
// <style> element or the href of a <link rel="stylesheet">.
type StyleRef struct {
	Text  string
	Href  string
	Media string
}

type Document struct {
	nodes    []Node
	Root     NodeID
	Title    string
	BaseHref string
	Styles   []StyleRef
}

func NewDocument() *Document {
	d := &Document{}
	d.Root = d.add(Node{Type: DocumentNode, TagName: "#document"})
	return d
}

func (d *Document) add(n Node) NodeID {
	n.ID = NodeID(len(d.nodes))
	n.Parent = InvalidNode
	d.nodes = append(d.nodes, n)
	return n.ID
}

// Node returns the node for id, or nil when id is out of range.
func (d *Document) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return &d.nodes[id]
}

// Len is the number of nodes in the arena, the root included.
func (d *Document) Len() int {
	return len(d.nodes)
}

// IsEmpty reports whether the document root has no content.
func (d *Document) IsEmpty() bool {
	return len(d.nodes[d.Root].Children) == 0
}

func (d *Document) CreateElement(tagName string, attrs map[string]string) NodeID {
	tagName = strings.ToLower(tagName)
	if attrs == nil {
		attrs = map[string]string{}
	}
	return d.add(Node{
		Type:       ElementNode,
		TagName:    tagName,
		Atom:       atom.Lookup([]byte(tagName)),
		Attributes: attrs,
	})
}

func (d *Document) CreateText(text string) NodeID {
	return d.add(Node{Type: TextNode, Text: text})
}

// AppendChild attaches child as the last child of parent.
func (d *Document) AppendChild(parent, child NodeID) {
	d.nodes[child].Parent = parent
	d.nodes[parent].Children = append(d.nodes[parent].Children, child)
}

// AppendText adds text to parent, merging with a trailing text child.
func (d *Document) AppendText(parent NodeID, text string) {
	if text == "" {
		return
	}
	children := d.nodes[parent].Children
	if n := len(children); n > 0 {
		last := &d.nodes[children[n-1]]
		if last.Type == TextNode {
			last.Text += text
			return
		}
	}
	d.AppendChild(parent, d.CreateText(text))
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

// Attr looks up an attribute on the node id.
func (d *Document) Attr(id NodeID, name string) (string, bool) {
	n := d.Node(id)
	if n == nil {
		return "", false
	}
	return n.GetAttribute(name)
}

// Walk visits id and its descendants in document order. Returning false
// from fn skips the node's subtree.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range d.nodes[id].Children {
		d.Walk(c, fn)
	}
}

// FindFirst returns the first element with the given tag name, in document order.
func (d *Document) FindFirst(tagName string) NodeID {
	found := InvalidNode
	d.Walk(d.Root, func(id NodeID) bool {
		if found != InvalidNode {
			return false
		}
		n := &d.nodes[id]
		if n.Type == ElementNode && n.TagName == tagName {
			found = id
			return false
		}
		return true
	})
	return found
}

// FindAll returns every element with the given tag name, in document order.
func (d *Document) FindAll(tagName string) []NodeID {
	var out []NodeID
	d.Walk(d.Root, func(id NodeID) bool {
		n := &d.nodes[id]
		if n.Type == ElementNode && n.TagName == tagName {
			out = append(out, id)
		}
		return true
	})
	return out
}

// TextContent concatenates all descendant text.
func (d *Document) TextContent(id NodeID) string {
	var sb strings.Builder
	d.Walk(id, func(c NodeID) bool {
		if d.nodes[c].Type == TextNode {
			sb.WriteString(d.nodes[c].Text)
		}
		return true
	})
	return sb.String()
}

// PreviousElementSibling returns the closest preceding element sibling.
func (d *Document) PreviousElementSibling(id NodeID) NodeID {
	parent := d.nodes[id].Parent
	if parent == InvalidNode {
		return InvalidNode
	}
	prev := InvalidNode
	for _, c := range d.nodes[parent].Children {
		if c == id {
			return prev
		}
		if d.nodes[c].Type == ElementNode {
			prev = c
		}
	}
	return InvalidNode
}

// NextElementSibling returns the closest following element sibling.
func (d *Document) NextElementSibling(id NodeID) NodeID {
	parent := d.nodes[id].Parent
	if parent == InvalidNode {
		return InvalidNode
	}
	seen := false
	for _, c := range d.nodes[parent].Children {
		if c == id {
			seen = true
			continue
		}
		if seen && d.nodes[c].Type == ElementNode {
			return c
		}
	}
	return InvalidNode
}

// Ancestor returns the nearest ancestor element with the given tag name.
func (d *Document) Ancestor(id NodeID, tagName string) NodeID {
	for p := d.nodes[id].Parent; p != InvalidNode; p = d.nodes[p].Parent {
		if d.nodes[p].Type == ElementNode && d.nodes[p].TagName == tagName {
			return p
		}
	}
	return InvalidNode
}

// Serialize returns the HTML serialization of the children of id.
func (d *Document) Serialize(id NodeID) string {
	var sb strings.Builder
	for _, c := range d.nodes[id].Children {
		d.serializeNode(&sb, c)
	}
	return sb.String()
}

// SerializeOuter returns the HTML serialization of id including its own tag.
func (d *Document) SerializeOuter(id NodeID) string {
	var sb strings.Builder
	d.serializeNode(&sb, id)
	return sb.String()
}

func (d *Document) serializeNode(sb *strings.Builder, id NodeID) {
	n := &d.nodes[id]
	switch n.Type {
	case TextNode:
		sb.WriteString(escapeText(n.Text))
		return
	case DocumentNode:
		for _, c := range n.Children {
			d.serializeNode(sb, c)
		}
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)
	// Sorted for stable output.
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(strings.ReplaceAll(escapeText(n.Attributes[k]), `"`, "&quot;"))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	if IsVoidElement(n.Atom) {
		return
	}
	for _, c := range n.Children {
		d.serializeNode(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
