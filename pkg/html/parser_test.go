package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyOf(t *testing.T, doc *Document) NodeID {
	t.Helper()
	body := doc.FindFirst("body")
	require.NotEqual(t, InvalidNode, body, "document has no body")
	return body
}

func childTags(doc *Document, id NodeID) []string {
	var tags []string
	for _, c := range doc.Node(id).Children {
		n := doc.Node(c)
		if n.Type == ElementNode {
			tags = append(tags, n.TagName)
		} else {
			tags = append(tags, "#text")
		}
	}
	return tags
}

func TestParser_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "<!DOCTYPE html>", "<!-- only a comment -->", "   \n "} {
		doc := Parse(input)
		assert.True(t, doc.IsEmpty(), "input %q should produce an empty root", input)
	}
}

func TestParser_ImplicitBody(t *testing.T) {
	doc := Parse("<div></div><p></p>")
	html := doc.Node(doc.Root).Children
	require.Len(t, html, 1)
	assert.Equal(t, "html", doc.Node(html[0]).TagName)
	assert.Equal(t, []string{"body"}, childTags(doc, html[0]))
	assert.Equal(t, []string{"div", "p"}, childTags(doc, bodyOf(t, doc)))
}

func TestParser_HeadElements(t *testing.T) {
	doc := Parse(`<title> My  Page </title><meta charset="utf-8"><link rel="stylesheet" href="a.css"><p>x</p>`)
	head := doc.FindFirst("head")
	require.NotEqual(t, InvalidNode, head)
	assert.Equal(t, []string{"meta", "link"}, childTags(doc, head))
	assert.Equal(t, "My Page", doc.Title)
	require.Len(t, doc.Styles, 1)
	assert.Equal(t, "a.css", doc.Styles[0].Href)
	assert.Equal(t, []string{"p"}, childTags(doc, bodyOf(t, doc)))
}

func TestParser_StyleTagsCollectedInOrder(t *testing.T) {
	doc := Parse(`<style>p{color:red}</style><link rel=stylesheet href="x.css"><body><style media="print">b{}</style></body>`)
	require.Len(t, doc.Styles, 3)
	assert.Equal(t, "p{color:red}", doc.Styles[0].Text)
	assert.Equal(t, "x.css", doc.Styles[1].Href)
	assert.Equal(t, "print", doc.Styles[2].Media)
}

func TestParser_NestedElements(t *testing.T) {
	doc := Parse(`<div><p>Hello</p></div>`)
	body := bodyOf(t, doc)
	div := doc.Node(body).Children[0]
	assert.Equal(t, []string{"p"}, childTags(doc, div))
	assert.Equal(t, "Hello", doc.TextContent(div))
}

func TestParser_VoidElementsNeverTakeChildren(t *testing.T) {
	doc := Parse(`<p>a<br>b<img src="x.png">c</p>`)
	p := doc.FindFirst("p")
	assert.Equal(t, []string{"#text", "br", "#text", "img", "#text"}, childTags(doc, p))
	assert.Empty(t, doc.Node(doc.FindFirst("img")).Children)
}

func TestParser_UnclosedParagraphs(t *testing.T) {
	doc := Parse(`<p>one<p>two<div>three</div>`)
	assert.Equal(t, []string{"p", "p", "div"}, childTags(doc, bodyOf(t, doc)))
}

func TestParser_UnclosedListItemsAndCells(t *testing.T) {
	doc := Parse(`<ul><li>a<li>b</ul><table><tr><td>1<td>2<tr><td>3<td>4</table>`)
	ul := doc.FindFirst("ul")
	assert.Equal(t, []string{"li", "li"}, childTags(doc, ul))

	rows := doc.FindAll("tr")
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, []string{"td", "td"}, childTags(doc, r))
	}
}

func TestParser_StrayEndTagsIgnored(t *testing.T) {
	doc := Parse(`</span><div>a</em>b</div></body></html><p>after</p>`)
	assert.Equal(t, []string{"div", "p"}, childTags(doc, bodyOf(t, doc)))
	assert.Equal(t, "ab", doc.TextContent(doc.FindFirst("div")))
}

func TestParser_EndBrBecomesBreak(t *testing.T) {
	doc := Parse(`<p>a</br>b</p>`)
	assert.Equal(t, []string{"#text", "br", "#text"}, childTags(doc, doc.FindFirst("p")))
}

func TestParser_UnknownElementsKept(t *testing.T) {
	doc := Parse(`<custom-tag foo="bar">x</custom-tag>`)
	id := doc.FindFirst("custom-tag")
	require.NotEqual(t, InvalidNode, id)
	v, ok := doc.Attr(id, "foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestParser_Entities(t *testing.T) {
	doc := Parse(`<p>Fish &amp; Chips &lt;3 &copy;</p>`)
	assert.Equal(t, "Fish & Chips <3 ©", doc.TextContent(doc.FindFirst("p")))
}

func TestParser_WhitespaceInTablesDropped(t *testing.T) {
	doc := Parse("<table>\n  <tr>\n    <td>x</td>\n  </tr>\n</table>")
	assert.Equal(t, []string{"tr"}, childTags(doc, doc.FindFirst("table")))
	assert.Equal(t, []string{"td"}, childTags(doc, doc.FindFirst("tr")))
}

func TestParser_InlineWhitespaceKept(t *testing.T) {
	doc := Parse("<p><b>a</b> <i>b</i></p>")
	assert.Equal(t, []string{"b", "#text", "i"}, childTags(doc, doc.FindFirst("p")))
}

func TestParser_BaseHref(t *testing.T) {
	doc := Parse(`<base href="https://example.com/docs/"><p>x</p>`)
	assert.Equal(t, "https://example.com/docs/", doc.BaseHref)
}

func TestParser_FontTagAttributes(t *testing.T) {
	doc := Parse(`<font face="Courier New, monospace" size="5" color="blue">x</font>`)
	id := doc.FindFirst("font")
	face, _ := doc.Attr(id, "face")
	assert.Equal(t, "Courier New, monospace", face)
	size, _ := doc.Attr(id, "size")
	assert.Equal(t, "5", size)
}

func TestParser_TableSections(t *testing.T) {
	doc := Parse(`<table><thead><tr><th>h</th></tr><tbody><tr><td>b</td></tr><tfoot><tr><td>f</td></tr></table>`)
	assert.Equal(t, []string{"thead", "tbody", "tfoot"}, childTags(doc, doc.FindFirst("table")))
}
