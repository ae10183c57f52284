package pdfgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/font/gofont/gomono"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/layout"
	"htmlpdf/pkg/paginate"
	"htmlpdf/pkg/pdf"
	"htmlpdf/pkg/resource"
	"htmlpdf/pkg/text"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func generate(t *testing.T, markup string, cfg *Config) *pdf.Document {
	t.Helper()
	doc, err := Generate(context.Background(), markup, cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return doc
}

// texts returns every text command of the document in page order.
func texts(doc *pdf.Document) []pdf.Text {
	var out []pdf.Text
	for _, p := range doc.Pages() {
		for _, c := range p.Commands {
			if txt, ok := c.(pdf.Text); ok {
				out = append(out, txt)
			}
		}
	}
	return out
}

func findText(t *testing.T, doc *pdf.Document, s string) pdf.Text {
	t.Helper()
	for _, txt := range texts(doc) {
		if txt.Text == s {
			return txt
		}
	}
	t.Fatalf("no text run %q", s)
	return pdf.Text{}
}

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 10.0, cfg.MarginTop())
	assert.Equal(t, 10.0, cfg.MarginRight())
	assert.Equal(t, 10.0, cfg.MarginBottom())
	assert.Equal(t, 10.0, cfg.MarginLeft())
	assert.Equal(t, 72.0, cfg.DPI)
	assert.Equal(t, A4, cfg.PageSize)
	assert.Equal(t, Portrait, cfg.Orientation)
	assert.Equal(t, paginate.RepeatHeaders, cfg.HeaderPolicy)
}

func TestMargins(t *testing.T) {
	cfg := NewConfig()
	for _, m := range []float64{0, 0.5, 10, 36, 144} {
		cfg.SetMargins(m)
		assert.Equal(t, []float64{m, m, m, m},
			[]float64{cfg.MarginTop(), cfg.MarginRight(), cfg.MarginBottom(), cfg.MarginLeft()})
	}

	cfg.SetMargins(20)
	cfg.SetMarginTop(-1)
	cfg.SetMarginRight(-0.01)
	cfg.SetMarginBottom(math.Inf(-1))
	cfg.SetMarginLeft(math.NaN())
	cfg.SetMargins(-5)
	assert.Equal(t, css.BoxEdge{Top: 20, Right: 20, Bottom: 20, Left: 20}, cfg.Margins())

	cfg.SetMarginLeft(3)
	assert.Equal(t, 3.0, cfg.MarginLeft())
	assert.Equal(t, 20.0, cfg.MarginTop())
}

func TestPageSizes(t *testing.T) {
	w, h := A4.Dimensions()
	assert.InDelta(t, 595, w, 1)
	assert.InDelta(t, 842, h, 1)

	cfg := NewConfig()
	cfg.PageSize = Letter
	cfg.Orientation = Landscape
	w, h = cfg.PageDimensions()
	assert.Equal(t, 792.0, w)
	assert.Equal(t, 612.0, h)

	s, ok := ParsePageSize(" legal ")
	assert.True(t, ok)
	assert.Equal(t, Legal, s)
	_, ok = ParsePageSize("postcard")
	assert.False(t, ok)
	assert.Equal(t, "B5", B5.String())
}

func TestGenerateEmptyMarkup(t *testing.T) {
	for _, markup := range []string{"", "   ", "<html><body></body></html>"} {
		doc := generate(t, markup, nil)
		assert.Equal(t, 0, doc.PageCount(), "markup %q", markup)

		data, err := doc.Bytes()
		require.NoError(t, err)
		assert.NotEmpty(t, data)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		assert.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))
		assert.Contains(t, string(data), "/Count 0")
	}
}

func TestGenerateProducesPages(t *testing.T) {
	doc := generate(t, "<html><head><title>Report</title></head><body><p>Hello world</p></body></html>", nil)
	require.GreaterOrEqual(t, doc.PageCount(), 1)
	assert.Equal(t, "Report", doc.Info.Title)

	page := doc.Pages()[0]
	assert.InDelta(t, 595.28, page.Width, 0.01)
	assert.InDelta(t, 841.89, page.Height, 0.01)

	hello := findText(t, doc, "Hello world")
	assert.GreaterOrEqual(t, hello.X, 10.0)
	assert.Greater(t, hello.Y, 10.0)

	data, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestLandscapeSwapsPageSize(t *testing.T) {
	cfg := NewConfig()
	cfg.PageSize = Letter
	cfg.Orientation = Landscape
	doc := generate(t, "<p>wide</p>", cfg)
	require.Equal(t, 1, doc.PageCount())
	page := doc.Pages()[0]
	assert.Equal(t, 792.0, page.Width)
	assert.Equal(t, 612.0, page.Height)
	assert.Greater(t, page.Width, page.Height)
}

func TestLongDocumentBreaksIntoPages(t *testing.T) {
	cfg := NewConfig()
	cfg.PageSize = A6
	var sb strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "<p>paragraph %d</p>", i)
	}
	doc := generate(t, sb.String(), cfg)
	assert.Greater(t, doc.PageCount(), 3)

	seen := map[string]int{}
	for _, txt := range texts(doc) {
		seen[txt.Text]++
	}
	for i := 0; i < 80; i++ {
		assert.Equal(t, 1, seen[fmt.Sprintf("paragraph %d", i)], "paragraph %d", i)
	}

	slices, err := New().Slices(context.Background(), sb.String(), cfg)
	require.NoError(t, err)
	require.Len(t, slices, doc.PageCount())
	_, height := cfg.PageDimensions()
	for i, s := range slices {
		assert.Equal(t, i, s.Index)
		assert.LessOrEqual(t, s.Height, height-2*DefaultMargin+1e-9)
	}
}

func TestPageBreakProperties(t *testing.T) {
	doc := generate(t, `<p>one</p><p style="page-break-before: always">two</p><p>three</p>`, nil)
	require.Equal(t, 2, doc.PageCount())
	var second []string
	for _, c := range doc.Pages()[1].Commands {
		if txt, ok := c.(pdf.Text); ok {
			second = append(second, txt.Text)
		}
	}
	assert.Equal(t, []string{"two", "three"}, second)
}

var sameFace = cmp.Comparer(func(a, b *text.Face) bool { return a == b })

func TestAppendKeepsExistingPages(t *testing.T) {
	cfg := NewConfig()
	cfg.Footer = "Page {page}"
	doc := generate(t, "<p>first document</p>", cfg)
	before := doc.PageCount()
	require.Equal(t, 1, before)
	snapshot := append([]pdf.Command(nil), doc.Pages()[0].Commands...)

	require.NoError(t, Append(context.Background(), doc, "<p>second document</p>", cfg))
	assert.Greater(t, doc.PageCount(), before)
	assert.Empty(t, cmp.Diff(snapshot, doc.Pages()[0].Commands, sameFace))

	findText(t, doc, "Page 1")
	findText(t, doc, "Page 2")
}

func TestAppendFailureLeavesDocumentUntouched(t *testing.T) {
	doc := generate(t, "<p>kept</p>", nil)
	cfg := NewConfig()
	cfg.SetMargins(500)
	err := Append(context.Background(), doc, "<p>lost</p>", cfg)
	assert.ErrorIs(t, err, ErrPageGeometry)
	assert.Equal(t, 1, doc.PageCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Append(ctx, doc, "<p>lost</p>", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, doc.PageCount())
}

func TestFontFamilyBeatsLegacyFace(t *testing.T) {
	doc := generate(t, `
		<div><font face="Courier">legacy</font></div>
		<div><font face="Courier" style="font-family: Arial">own style</font></div>
		<div><font face="Courier"><span style="font-family: Arial">child style</span></font></div>`, nil)

	assert.Equal(t, text.MonoFamily, findText(t, doc, "legacy").Face.Key.Family)
	assert.Equal(t, text.DefaultFamily, findText(t, doc, "own style").Face.Key.Family)
	assert.Equal(t, text.DefaultFamily, findText(t, doc, "child style").Face.Key.Family)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
		img.Set(x, 1, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStylesheetsCascadeInDocumentOrder(t *testing.T) {
	sheets := map[string]string{
		"https://example.com/a.css":    `@import "base.css"; p { color: #ff0000 } em { color: #ff0000 }`,
		"https://example.com/base.css": `p { color: #0000ff } span { color: #0000ff }`,
	}
	cfg := NewConfig()
	cfg.BaseURL = "https://example.com/"
	cfg.Loader = resource.LoaderFunc(func(ctx context.Context, url string) ([]byte, error) {
		if body, ok := sheets[url]; ok {
			return []byte(body), nil
		}
		return nil, errors.New("not found")
	})
	doc := generate(t, `<link rel="stylesheet" href="a.css"><style>em { color: #00ff00 }</style>
		<p>para</p><div><span>imported</span></div><div><em>inline</em></div>`, cfg)

	assert.Equal(t, pdf.RGB{R: 1}, findText(t, doc, "para").Color)
	assert.Equal(t, pdf.RGB{B: 1}, findText(t, doc, "imported").Color)
	assert.Equal(t, pdf.RGB{G: 1}, findText(t, doc, "inline").Color)

	got := authorSheets([]sheetSource{{sheet: &css.Stylesheet{}, base: "x"}, {sheet: nil}})
	require.Len(t, got, 2)
	assert.Nil(t, got[1])
}

func TestExternalResources(t *testing.T) {
	assets := map[string][]byte{
		"https://example.com/site.css":        []byte(`@import "base.css"; p { color: #ff0000 } @font-face { font-family: Brand; src: url(fonts/brand.ttf) }`),
		"https://example.com/base.css":        []byte(`h1 { font-family: Brand }`),
		"https://example.com/fonts/brand.ttf": gomono.TTF,
		"https://example.com/logo.png":        pngBytes(t),
	}
	var calls atomic.Int64
	loader := resource.LoaderFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		if data, ok := assets[url]; ok {
			return data, nil
		}
		return nil, errors.New("not found")
	})

	cfg := NewConfig()
	cfg.Loader = loader
	cfg.BaseURL = "https://example.com/index.html"
	doc := generate(t, `<html><head><link rel="stylesheet" href="site.css"></head><body>
		<h1>Title</h1>
		<p>red text</p>
		<img src="logo.png"><img src="logo.png"><img src="missing.png" width="10" height="10">
		</body></html>`, cfg)

	assert.Equal(t, pdf.RGB{R: 1}, findText(t, doc, "red text").Color)
	assert.Equal(t, "Brand", findText(t, doc, "Title").Face.Key.Family)

	var placed []pdf.Image
	for _, c := range doc.Pages()[0].Commands {
		if im, ok := c.(pdf.Image); ok {
			placed = append(placed, im)
		}
	}
	require.Len(t, placed, 3)
	assert.Same(t, placed[0].Image, placed[1].Image)
	assert.Equal(t, 4, placed[0].Image.Width)
	assert.InDelta(t, 4.0, placed[0].W, 1e-9)
	assert.InDelta(t, 10.0, placed[2].W, 1e-9)

	// site.css, base.css, brand.ttf, logo.png and missing.png, once each
	assert.Equal(t, int64(5), calls.Load())
}

func TestFailedResourcesAreNotFatal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := NewConfig()
	cfg.Loader = resource.LoaderFunc(func(ctx context.Context, url string) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	doc, err := Generate(context.Background(),
		`<link rel="stylesheet" href="http://example.invalid/a.css"><p>still here</p><img src="http://example.invalid/b.png">`,
		cfg, WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())
	findText(t, doc, "still here")
	assert.Equal(t, 2, logs.FilterMessage("resource unavailable").Len())
}

func TestTableRowsAreKeptWhole(t *testing.T) {
	const rows, cols = 40, 3
	var sb strings.Builder
	sb.WriteString(`<table border="1">`)
	for r := 0; r < rows; r++ {
		sb.WriteString("<tr>")
		for c := 0; c < cols; c++ {
			fmt.Fprintf(&sb, "<td>cell %d %d<br>second line</td>", r, c)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")

	dom := html.Parse(sb.String())
	styles := css.NewResolver(dom, nil).ResolveAll()
	root, err := layout.NewLayoutEngine(dom, styles, nil).Layout(400, 300)
	require.NoError(t, err)

	rowHeights := map[html.NodeID]float64{}
	root.Walk(func(b *layout.Box) bool {
		if b.Kind == layout.TableRowBox {
			cells := 0
			for _, c := range b.Children {
				if c.Kind == layout.TableCellBox {
					cells++
				}
			}
			assert.Equal(t, cols, cells)
			rowHeights[b.Node] = b.Height
		}
		return true
	})
	require.Len(t, rowHeights, rows)

	slices, err := paginate.Paginate(root, 300)
	require.NoError(t, err)
	require.Greater(t, len(slices), 1)
	pagesOf := map[html.NodeID]int{}
	for _, s := range slices {
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TableRowBox {
				pagesOf[b.Node]++
				assert.InDelta(t, rowHeights[b.Node], b.Height, 1e-9)
				assert.LessOrEqual(t, b.Bottom(), 300+1e-9)
			}
			return true
		})
	}
	for id := range rowHeights {
		assert.Equal(t, 1, pagesOf[id], "row %d", id)
	}
}

func TestTallCellBreaksBetweenLines(t *testing.T) {
	cfg := NewConfig()
	cfg.PageSize = A6
	var sb strings.Builder
	sb.WriteString(`<table border="1"><tr><td>`)
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "line %d<br>", i)
	}
	sb.WriteString("</td></tr></table>")

	slices, err := New().Slices(context.Background(), sb.String(), cfg)
	require.NoError(t, err)
	require.Greater(t, len(slices), 1)
	_, height := cfg.PageDimensions()
	contentH := height - cfg.MarginTop() - cfg.MarginBottom()

	seen := map[string]int{}
	for i, s := range slices {
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TextBox {
				seen[b.Text]++
				assert.GreaterOrEqual(t, b.Y, -1e-6, "%q on page %d", b.Text, i)
				assert.LessOrEqual(t, b.Bottom(), contentH+1e-6, "%q on page %d", b.Text, i)
			}
			return true
		})
	}
	for i := 0; i < 80; i++ {
		assert.Equal(t, 1, seen[fmt.Sprintf("line %d", i)], "line %d", i)
	}
}

func TestConcurrentGenerateIsIsolated(t *testing.T) {
	type job struct {
		markup string
		cfg    *Config
		word   string
	}
	letter := NewConfig()
	letter.PageSize = Letter
	letter.Orientation = Landscape
	letter.SetMargins(36)
	jobs := []job{
		{`<p style="font-family: monospace">alpha</p>`, NewConfig(), "alpha"},
		{`<p style="color: blue">bravo</p>`, letter, "bravo"},
	}

	const rounds = 8
	docs := make([]*pdf.Document, len(jobs)*rounds)
	var wg sync.WaitGroup
	for i := range docs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := jobs[i%len(jobs)]
			doc, err := Generate(context.Background(), j.markup, j.cfg)
			assert.NoError(t, err)
			docs[i] = doc
		}()
	}
	wg.Wait()

	for i, doc := range docs {
		require.NotNil(t, doc)
		j := jobs[i%len(jobs)]
		require.Equal(t, 1, doc.PageCount())
		got := texts(doc)
		require.Len(t, got, 1)
		assert.Equal(t, j.word, got[0].Text)
		w, h := j.cfg.PageDimensions()
		assert.Equal(t, w, doc.Pages()[0].Width)
		assert.Equal(t, h, doc.Pages()[0].Height)
	}
	assert.Equal(t, text.MonoFamily, texts(docs[0])[0].Face.Key.Family)
	assert.Equal(t, pdf.RGB{B: 1}, texts(docs[1])[0].Color)
}
