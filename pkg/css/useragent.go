package css

import "sync"

// DefaultUserAgentCSS is the built-in stylesheet applied beneath author styles.
const DefaultUserAgentCSS = `
html, body, div, p, address, blockquote, center, dl, dt, dd, fieldset, form,
figure, figcaption, footer, header, hgroup, main, nav, section, article, aside,
details, summary, h1, h2, h3, h4, h5, h6, ul, ol, pre, hr, legend, menu, dir {
  display: block;
}
head, script, style, title, meta, link, base, template, noscript, [hidden] {
  display: none;
}
li { display: list-item; }
table { display: table; border-spacing: 2px; border-collapse: separate; }
caption { display: table-caption; text-align: center; }
thead { display: table-header-group; vertical-align: middle; }
tbody { display: table-row-group; vertical-align: middle; }
tfoot { display: table-footer-group; vertical-align: middle; }
tr { display: table-row; vertical-align: inherit; }
td, th { display: table-cell; padding: 1px; vertical-align: inherit; }
th { font-weight: bold; text-align: center; }
col, colgroup { display: table-column; }

body { margin: 8px; font-family: serif; }
p, dl, blockquote, figure, ul, ol, menu, dir { margin-top: 1em; margin-bottom: 1em; }
blockquote, figure { margin-left: 40px; margin-right: 40px; }
dd { margin-left: 40px; }
ul, ol, menu, dir { padding-left: 40px; }
ol { list-style-type: decimal; }
ul ul, ol ul { list-style-type: circle; }
ul ul ul, ol ul ul, ul ol ul { list-style-type: square; }
li > p:first-child { margin-top: 0; }

h1 { font-size: 2em; margin-top: 0.67em; margin-bottom: 0.67em; }
h2 { font-size: 1.5em; margin-top: 0.83em; margin-bottom: 0.83em; }
h3 { font-size: 1.17em; margin-top: 1em; margin-bottom: 1em; }
h4 { margin-top: 1.33em; margin-bottom: 1.33em; }
h5 { font-size: 0.83em; margin-top: 1.67em; margin-bottom: 1.67em; }
h6 { font-size: 0.67em; margin-top: 2.33em; margin-bottom: 2.33em; }
h1, h2, h3, h4, h5, h6 { font-weight: bold; page-break-after: avoid; }

b, strong { font-weight: bold; }
i, em, cite, var, dfn, address { font-style: italic; }
u, ins { text-decoration: underline; }
s, strike, del { text-decoration: line-through; }
a:link { color: #0645ad; text-decoration: underline; }
small, sub, sup { font-size: smaller; }
big { font-size: larger; }
center { text-align: center; }
pre, code, kbd, samp, tt { font-family: monospace; }
pre { white-space: pre; margin-top: 1em; margin-bottom: 1em; }
hr { border-top: 1px solid gray; margin-top: 0.5em; margin-bottom: 0.5em; }
`

var userAgentSheet = sync.OnceValue(func() *Stylesheet {
	return ParseStylesheet(DefaultUserAgentCSS)
})
