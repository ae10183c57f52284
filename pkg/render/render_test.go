package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/images"
	"htmlpdf/pkg/layout"
	"htmlpdf/pkg/paginate"
	"htmlpdf/pkg/pdf"
	"htmlpdf/pkg/text"
)

var sameFace = cmp.Comparer(func(a, b *text.Face) bool { return a == b })

var red = css.Color{R: 255, A: 255}

func margins(v float64) css.BoxEdge {
	return css.BoxEdge{Top: v, Right: v, Bottom: v, Left: v}
}

// body strips the content clip every page starts and ends with.
func body(t *testing.T, page *pdf.Page) []pdf.Command {
	t.Helper()
	require.GreaterOrEqual(t, len(page.Commands), 2)
	require.IsType(t, pdf.PushClip{}, page.Commands[0])
	require.IsType(t, pdf.PopClip{}, page.Commands[len(page.Commands)-1])
	return page.Commands[1 : len(page.Commands)-1]
}

func TestRenderClipsToContentArea(t *testing.T) {
	r := NewRenderer(200, 300, margins(10))
	page := r.Render(paginate.Slice{})
	assert.Equal(t, 200.0, page.Width)
	assert.Equal(t, 300.0, page.Height)
	want := []pdf.Command{pdf.PushClip{X: 10, Y: 10, W: 180, H: 280}, pdf.PopClip{}}
	assert.Empty(t, cmp.Diff(want, page.Commands))
}

func TestBackgroundAndBorders(t *testing.T) {
	st := css.InitialStyle()
	st.Background = red
	st.BorderStyle = [4]css.BorderStyle{css.BorderSolid, css.BorderDashed, css.BorderDouble, css.BorderNone}
	box := &layout.Box{
		Kind: layout.BlockBox, Style: st,
		X: 0, Y: 5, Width: 100, Height: 40,
		Border: css.BoxEdge{Top: 2, Right: 1, Bottom: 6, Left: 4},
	}
	page := NewRenderer(200, 300, margins(10)).Render(paginate.Slice{Root: box})

	black := pdf.RGB{}
	want := []pdf.Command{
		pdf.FillRect{X: 10, Y: 15, W: 100, H: 40, Color: pdf.RGB{R: 1}},
		pdf.FillRect{X: 10, Y: 15, W: 100, H: 2, Color: black},
		pdf.Line{X1: 109.5, Y1: 17, X2: 109.5, Y2: 49, Width: 1, Color: black, Dash: []float64{3, 3}},
		pdf.FillRect{X: 10, Y: 49, W: 100, H: 2, Color: black},
		pdf.FillRect{X: 10, Y: 53, W: 100, H: 2, Color: black},
	}
	assert.Empty(t, cmp.Diff(want, body(t, page)))
}

func TestTextRunsAndDecorations(t *testing.T) {
	face := text.Builtin(text.DefaultFamily, false, false)
	st := css.InitialStyle()
	st.Underline = true
	st.Color = red
	run := &layout.Box{
		Kind: layout.TextBox, Style: st, Face: face, FontSize: 14, Text: "hi",
		X: 3, Y: 0, Width: 12, Height: 16, Baseline: 12, Background: css.White,
	}
	page := NewRenderer(100, 100, margins(0)).Render(paginate.Slice{Root: run})
	want := []pdf.Command{
		pdf.FillRect{X: 3, Y: 0, W: 12, H: 16, Color: pdf.RGB{R: 1, G: 1, B: 1}},
		pdf.Text{X: 3, Y: 12, Face: face, Size: 14, Color: pdf.RGB{R: 1}, Text: "hi"},
		pdf.FillRect{X: 3, Y: 13.4, W: 12, H: 1, Color: pdf.RGB{R: 1}},
	}
	assert.Empty(t, cmp.Diff(want, body(t, page), sameFace))
}

func TestHiddenBoxesStillDrawChildren(t *testing.T) {
	hidden := css.InitialStyle()
	hidden.Visible = false
	hidden.Background = red
	shown := css.InitialStyle()
	shown.Background = red
	child := &layout.Box{Kind: layout.BlockBox, Style: shown, Width: 10, Height: 10}
	parent := &layout.Box{Kind: layout.BlockBox, Style: hidden, Width: 50, Height: 50, Children: []*layout.Box{child}}

	cmds := body(t, NewRenderer(100, 100, margins(0)).Render(paginate.Slice{Root: parent}))
	require.Len(t, cmds, 1)
	assert.Equal(t, pdf.FillRect{W: 10, H: 10, Color: pdf.RGB{R: 1}}, cmds[0])
}

func TestMarkersAndImages(t *testing.T) {
	st := css.InitialStyle()
	disc := &layout.Box{Kind: layout.MarkerBox, Style: st, Marker: "disc", X: 1, Y: 2, Width: 4, Height: 4}
	square := &layout.Box{Kind: layout.MarkerBox, Style: st, Marker: "square", X: 1, Y: 20, Width: 4, Height: 4}
	img := &images.Image{Width: 1, Height: 1, Data: []byte{0, 0, 0}}
	pic := &layout.Box{
		Kind: layout.ImageBox, Style: st, Image: img,
		X: 10, Y: 30, Width: 24, Height: 14, Padding: css.BoxEdge{Top: 2, Right: 2, Bottom: 2, Left: 2},
	}
	root := &layout.Box{Kind: layout.AnonymousBox, Children: []*layout.Box{disc, square, pic}}

	cmds := body(t, NewRenderer(100, 100, margins(5)).Render(paginate.Slice{Root: root}))
	want := []pdf.Command{
		pdf.Ellipse{X: 6, Y: 7, W: 4, H: 4, Fill: true},
		pdf.FillRect{X: 6, Y: 25, W: 4, H: 4},
		pdf.Image{X: 17, Y: 37, W: 20, H: 10, Image: img},
	}
	assert.Empty(t, cmp.Diff(want, cmds))
}

func TestFooterIsCenteredInBottomMargin(t *testing.T) {
	face := text.Builtin(text.DefaultFamily, false, false)
	r := NewRenderer(200, 300, margins(40))
	page := pdf.NewPage(200, 300)
	r.Footer(page, "Page 3", face, 10)
	require.Len(t, page.Commands, 1)
	txt, ok := page.Commands[0].(pdf.Text)
	require.True(t, ok)
	w := face.MeasureString("Page 3", 10)
	assert.InDelta(t, (200-w)/2, txt.X, 1e-9)
	assert.Greater(t, txt.Y, 260.0)
	assert.Less(t, txt.Y, 300.0)

	r.Footer(page, "", face, 10)
	assert.Len(t, page.Commands, 1)
}
