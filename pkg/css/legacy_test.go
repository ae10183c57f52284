package css

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"htmlpdf/pkg/html"
)

func declMap(decls []Declaration) map[string]string {
	m := make(map[string]string, len(decls))
	for _, d := range decls {
		m[d.Property] = d.Value
	}
	return m
}

func TestPresentationalDeclarations(t *testing.T) {
	doc := html.Parse(`<body text="ff0000" bgcolor="#eeeeee">
		<table border="2" cellpadding="4" cellspacing="0" width="80%" align="center">
			<tr valign="top"><td nowrap width="100" align="right">x</td></tr>
		</table>
		<font face="Courier" size="+2" color="blue">y</font>
		<hr size="3" color="red">
	</body>`)

	body := declMap(PresentationalDeclarations(doc, doc.FindFirst("body")))
	assert.Equal(t, "#ff0000", body["color"])
	assert.Equal(t, "#eeeeee", body["background-color"])

	table := declMap(PresentationalDeclarations(doc, doc.FindFirst("table")))
	assert.Equal(t, "2px", table["border-top-width"])
	assert.Equal(t, "0px", table["border-spacing"])
	assert.Equal(t, "80%", table["width"])
	assert.Equal(t, "auto", table["margin-left"])

	tr := declMap(PresentationalDeclarations(doc, doc.FindFirst("tr")))
	assert.Equal(t, "top", tr["vertical-align"])

	td := declMap(PresentationalDeclarations(doc, doc.FindFirst("td")))
	assert.Equal(t, "1px", td["border-left-width"])
	assert.Equal(t, "4px", td["padding-top"])
	assert.Equal(t, "nowrap", td["white-space"])
	assert.Equal(t, "100px", td["width"])
	assert.Equal(t, "right", td["text-align"])

	font := declMap(PresentationalDeclarations(doc, doc.FindFirst("font")))
	assert.Equal(t, "Courier", font["font-family"])
	assert.Equal(t, "18pt", font["font-size"])
	assert.Equal(t, "blue", font["color"])

	hr := declMap(PresentationalDeclarations(doc, doc.FindFirst("hr")))
	assert.Equal(t, "3px", hr["border-top-width"])
	assert.Equal(t, "red", hr["border-top-color"])
}

func TestPresentationalDeclarations_NoBorderOnCells(t *testing.T) {
	doc := html.Parse(`<table border="0"><tr><td>x</td></tr></table>`)
	td := declMap(PresentationalDeclarations(doc, doc.FindFirst("td")))
	assert.NotContains(t, td, "border-top-width")
}
