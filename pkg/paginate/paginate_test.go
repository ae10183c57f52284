package paginate

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/layout"
)

func textLine(y, h float64, s string) *layout.Box {
	return &layout.Box{
		Kind: layout.LineBox, Y: y, Width: 100, Height: h,
		Children: []*layout.Box{
			{Kind: layout.TextBox, Y: y, Width: 50, Height: h, Baseline: h * 0.8, Text: s},
		},
	}
}

func lines(y float64, n int, prefix string) []*layout.Box {
	out := make([]*layout.Box, n)
	for i := range out {
		out[i] = textLine(y+float64(i)*10, 10, fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

func block(st *css.ComputedStyle, kids ...*layout.Box) *layout.Box {
	b := &layout.Box{Kind: layout.BlockBox, Style: st, Width: 100, Children: kids}
	if len(kids) > 0 {
		b.Y = kids[0].Y
		b.Height = kids[len(kids)-1].Bottom() - b.Y
	}
	return b
}

func flow(kids ...*layout.Box) *layout.Box {
	root := block(nil, kids...)
	root.Y = 0
	if len(kids) > 0 {
		root.Height = kids[len(kids)-1].Bottom()
	}
	return root
}

func row(y, h float64, s string, header bool) *layout.Box {
	cell := &layout.Box{Kind: layout.TableCellBox, Y: y, Width: 100, Height: h,
		Children: []*layout.Box{textLine(y, math.Min(h, 10), s)}}
	return &layout.Box{Kind: layout.TableRowBox, Y: y, Width: 100, Height: h, Header: header,
		Children: []*layout.Box{cell}}
}

func table(rows ...*layout.Box) *layout.Box {
	return &layout.Box{Kind: layout.TableBox, Y: rows[0].Y, Width: 100,
		Height: rows[len(rows)-1].Bottom() - rows[0].Y, Children: rows}
}

func styled(fn func(*css.ComputedStyle)) *css.ComputedStyle {
	st := css.InitialStyle()
	fn(st)
	return st
}

// texts lists the text runs of each slice in tree order.
func texts(slices []Slice) [][]string {
	out := make([][]string, len(slices))
	for i, s := range slices {
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TextBox {
				out[i] = append(out[i], b.Text)
			}
			return true
		})
	}
	return out
}

func paginate(t *testing.T, root *layout.Box, height float64, opts ...Option) []Slice {
	t.Helper()
	opts = append(opts, WithLogger(zaptest.NewLogger(t)))
	slices, err := Paginate(root, height, opts...)
	require.NoError(t, err)
	return slices
}

func TestEmptyFlowHasNoPages(t *testing.T) {
	assert.Empty(t, paginate(t, flow(), 100))

	blank := &layout.Box{Kind: layout.BlockBox, Style: css.InitialStyle(), Y: 8, Width: 100, Height: 0}
	root := flow(blank)
	root.Height = 16
	assert.Empty(t, paginate(t, root, 100))
}

func TestShortFlowFitsOnePage(t *testing.T) {
	slices := paginate(t, flow(block(nil, lines(8, 3, "l")...)), 100)
	require.Len(t, slices, 1)
	assert.Equal(t, 0.0, slices[0].Offset)
	assert.Equal(t, []string{"l0", "l1", "l2"}, texts(slices)[0])
}

func TestLinesFlowAcrossPages(t *testing.T) {
	slices := paginate(t, flow(block(nil, lines(0, 25, "l")...)), 100)
	require.Len(t, slices, 3)
	got := texts(slices)
	assert.Len(t, got[0], 10)
	assert.Len(t, got[1], 10)
	assert.Len(t, got[2], 5)
	assert.Equal(t, "l10", got[1][0])
	assert.Equal(t, 100.0, slices[1].Offset)

	for _, s := range slices {
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TextBox {
				assert.GreaterOrEqual(t, b.Y, 0.0)
				assert.Less(t, b.Y, 100.0)
			}
			return true
		})
	}
	// the block is cut: no bottom edge on page one, no top edge on page two
	first := slices[0].Root.Children[0]
	assert.Equal(t, 100.0, first.Height)
	assert.Equal(t, 0.0, slices[1].Root.Children[0].Y)
}

func TestBlockThatFitsMovesWhole(t *testing.T) {
	root := flow(
		block(nil, lines(0, 6, "a")...),
		block(nil, lines(60, 6, "b")...),
	)
	slices := paginate(t, root, 100)
	require.Len(t, slices, 2)
	assert.Equal(t, 60.0, slices[1].Offset)
	got := texts(slices)
	assert.Equal(t, []string{"a0", "a1", "a2", "a3", "a4", "a5"}, got[0])
	assert.Equal(t, "b0", got[1][0])
}

func TestForcedBreaks(t *testing.T) {
	always := styled(func(st *css.ComputedStyle) { st.BreakBefore = css.BreakAlways })
	after := styled(func(st *css.ComputedStyle) { st.BreakAfter = css.BreakAlways })

	t.Run("no empty leading page", func(t *testing.T) {
		slices := paginate(t, flow(block(always, lines(0, 2, "a")...)), 100)
		assert.Len(t, slices, 1)
	})
	t.Run("break before", func(t *testing.T) {
		root := flow(block(nil, lines(0, 2, "a")...), block(always, lines(20, 2, "b")...))
		slices := paginate(t, root, 100)
		require.Len(t, slices, 2)
		assert.Equal(t, []string{"b0", "b1"}, texts(slices)[1])
	})
	t.Run("break after", func(t *testing.T) {
		root := flow(block(after, lines(0, 2, "a")...), block(nil, lines(20, 2, "b")...))
		assert.Len(t, paginate(t, root, 100), 2)
	})
	t.Run("break after last block", func(t *testing.T) {
		root := flow(block(nil, lines(0, 2, "a")...), block(after, lines(20, 2, "b")...))
		assert.Len(t, paginate(t, root, 100), 1)
	})
	t.Run("break inside a tall block", func(t *testing.T) {
		inner := block(always, lines(20, 1, "c")...)
		outer := block(nil, textLine(0, 10, "a"), textLine(10, 10, "b"), inner)
		slices := paginate(t, flow(outer), 100)
		require.Len(t, slices, 2)
		assert.Equal(t, []string{"c0"}, texts(slices)[1])
	})
}

func TestHeadingMovesWithFollowingBlock(t *testing.T) {
	avoid := styled(func(st *css.ComputedStyle) { st.BreakAfter = css.BreakAvoid })
	root := flow(
		block(nil, lines(0, 8, "p")...),
		block(avoid, textLine(80, 10, "heading")),
		block(nil, lines(90, 6, "q")...),
	)
	slices := paginate(t, root, 100)
	require.Len(t, slices, 2)
	got := texts(slices)
	assert.NotContains(t, got[0], "heading")
	assert.Equal(t, "heading", got[1][0])
	assert.Equal(t, 80.0, slices[1].Offset)
}

func bodyRows(y float64, n int, h float64) []*layout.Box {
	out := make([]*layout.Box, n)
	for i := range out {
		out[i] = row(y+float64(i)*h, h, fmt.Sprintf("r%d", i), false)
	}
	return out
}

func TestHeaderRowsRepeat(t *testing.T) {
	build := func() *layout.Box {
		rows := append([]*layout.Box{row(0, 10, "head", true)}, bodyRows(10, 20, 10)...)
		return flow(table(rows...))
	}

	t.Run("repeat", func(t *testing.T) {
		slices := paginate(t, build(), 100)
		require.Len(t, slices, 3)
		assert.Empty(t, slices[0].Repeated)
		require.Len(t, slices[1].Repeated, 1)
		got := texts(slices)
		assert.Equal(t, []string{"head", "r9"}, got[1][:2])
		assert.Equal(t, 0.0, slices[1].Repeated[0].Y)

		var firstBody *layout.Box
		slices[1].Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TableRowBox && !b.Header && firstBody == nil {
				firstBody = b
			}
			return true
		})
		require.NotNil(t, firstBody)
		assert.Equal(t, 10.0, firstBody.Y)
	})

	t.Run("no repeat", func(t *testing.T) {
		slices := paginate(t, build(), 100, WithHeaderPolicy(NoRepeat))
		require.Len(t, slices, 3)
		for _, s := range slices {
			assert.Empty(t, s.Repeated)
		}
		assert.Equal(t, "r9", texts(slices)[1][0])
	})
}

func TestRowsAreNotSplit(t *testing.T) {
	slices := paginate(t, flow(table(bodyRows(0, 10, 30)...)), 100)
	require.Len(t, slices, 4)
	for _, s := range slices {
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TableRowBox {
				assert.Equal(t, 30.0, b.Height)
				assert.GreaterOrEqual(t, b.Y, 0.0)
				assert.LessOrEqual(t, b.Bottom(), 100.0)
			}
			return true
		})
	}
}

func TestRowSpanKeepsRowsTogether(t *testing.T) {
	rows := bodyRows(0, 3, 40)
	rows[1].SpanRows = 1
	slices := paginate(t, flow(table(rows...)), 100)
	require.Len(t, slices, 2)
	assert.Equal(t, 40.0, slices[1].Offset)
	assert.Equal(t, []string{"r1", "r2"}, texts(slices)[1])
}

func TestOversizeContentIsSliced(t *testing.T) {
	img := &layout.Box{Kind: layout.ImageBox, Y: 0, Width: 50, Height: 250}
	line := &layout.Box{Kind: layout.LineBox, Y: 0, Width: 100, Height: 250, Children: []*layout.Box{img}}
	slices := paginate(t, flow(line), 100)
	require.Len(t, slices, 3)
	for i, s := range slices {
		var found *layout.Box
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.ImageBox {
				found = b
			}
			return true
		})
		require.NotNil(t, found, "page %d", i)
		assert.Equal(t, -100*float64(i), found.Y)
	}
	assert.Equal(t, 50.0, slices[2].Height)
}

func TestTallRowBreaksBetweenLines(t *testing.T) {
	cell := func(x float64, n int, h float64, prefix string) *layout.Box {
		c := &layout.Box{Kind: layout.TableCellBox, X: x, Width: 50, Height: 300}
		for i := 0; i < n; i++ {
			c.Children = append(c.Children, textLine(float64(i)*h, h, fmt.Sprintf("%s%d", prefix, i)))
		}
		return c
	}
	tall := &layout.Box{Kind: layout.TableRowBox, Width: 100, Height: 300,
		Children: []*layout.Box{cell(0, 25, 12, "a"), cell(50, 18, 16, "b")}}
	slices := paginate(t, flow(table(tall)), 100)

	require.Len(t, slices, 4)
	seen := map[string]int{}
	for i, s := range slices {
		assert.Equal(t, 96*float64(i), s.Offset, "page %d", i)
		s.Root.Walk(func(b *layout.Box) bool {
			if b.Kind == layout.TextBox {
				seen[b.Text]++
				assert.GreaterOrEqual(t, b.Y, -1e-9, "%s on page %d", b.Text, i)
				assert.LessOrEqual(t, b.Bottom(), 100+1e-9, "%s on page %d", b.Text, i)
			}
			return true
		})
	}
	assert.Len(t, seen, 25+18)
	for text, n := range seen {
		assert.Equal(t, 1, n, text)
	}
}

func TestCutBefore(t *testing.T) {
	spans := []span{{0, 10}, {5, 25}, {10, 20}, {30, 40}}
	assert.Equal(t, 30.0, cutBefore(spans, 0, 35))
	assert.Equal(t, 25.0, cutBefore(spans, 0, 28))
	assert.Equal(t, 18.0, cutBefore(spans, 0, 18), "no gap fits, cut at the limit")
	assert.Equal(t, 50.0, cutBefore(spans, 40, 50))
}

func TestPaginateRejectsBadInput(t *testing.T) {
	root := flow(block(nil, lines(0, 1, "a")...))
	for _, h := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := Paginate(root, h)
		assert.ErrorIs(t, err, ErrInvariant, "height %v", h)
	}
	_, err := Paginate(nil, 100)
	assert.ErrorIs(t, err, ErrInvariant)
}
