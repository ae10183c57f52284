package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/font/gofont/gomono"
)

func TestBuiltinFaces(t *testing.T) {
	regular := Builtin(DefaultFamily, false, false)
	bold := Builtin(DefaultFamily, true, false)
	mono := Builtin(MonoFamily, false, false)

	require.NotNil(t, regular)
	assert.NotSame(t, regular, bold)
	assert.Same(t, regular, Builtin(DefaultFamily, false, false), "built-ins are parsed once")
	assert.NotEmpty(t, regular.Program)
	assert.NotEmpty(t, regular.Name)

	assert.Greater(t, regular.Ascent(12), 0.0)
	assert.Greater(t, regular.Descent(12), 0.0)
	assert.Less(t, regular.Ascent(12), 12.0)
	assert.Greater(t, regular.CapHeightUnits(), 0.0)
	assert.Less(t, regular.BBox()[1], 0.0)

	assert.Equal(t, 1, mono.Flags()&1, "Go Mono is fixed pitch")
	assert.Equal(t, 0, regular.Flags()&1)
	assert.Equal(t, 64, Builtin(DefaultFamily, false, true).Flags()&64)
}

func TestMeasureString(t *testing.T) {
	face := Builtin(DefaultFamily, false, false)

	assert.Equal(t, 0.0, face.MeasureString("", 12))
	w12 := face.MeasureString("Hello", 12)
	w24 := face.MeasureString("Hello", 24)
	assert.Greater(t, w12, 0.0)
	assert.InDelta(t, 2*w12, w24, 1e-9, "width scales with size")

	wide := face.MeasureString("WWWW", 12)
	narrow := face.MeasureString("iiii", 12)
	assert.Greater(t, wide, narrow)

	mono := Builtin(MonoFamily, false, false)
	assert.InDelta(t, mono.MeasureString("WWWW", 12), mono.MeasureString("iiii", 12), 1e-9)

	// unencodable runes are measured as '?'
	assert.InDelta(t, face.MeasureString("?", 12), face.MeasureString("世", 12), 1e-9)

	widths := face.GlyphWidths()
	assert.InDelta(t, widths['H']*12/1000, face.MeasureString("H", 12), 1e-9)
}

func TestEncodeWinAnsi(t *testing.T) {
	assert.Equal(t, []byte("abc"), EncodeWinAnsi("abc"))
	assert.Equal(t, []byte{0xe9}, EncodeWinAnsi("é"))
	assert.Equal(t, []byte{0x80}, EncodeWinAnsi("€"))
	assert.Equal(t, []byte{0x93, 'q', 0x94}, EncodeWinAnsi("“q”"))
	assert.Equal(t, []byte("?"), EncodeWinAnsi("日"))
	assert.Equal(t, []byte("a b"), EncodeWinAnsi("a\u2009b"))
	assert.Equal(t, []byte("ab"), EncodeWinAnsi("a\u200bb"))
}

func TestRegistryMatch(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	tests := []struct {
		families []string
		bold     bool
		want     string
	}{
		{[]string{"Arial"}, false, DefaultFamily},
		{[]string{"Courier New", "monospace"}, false, MonoFamily},
		{[]string{"No Such Font", "monospace"}, true, MonoFamily},
		{[]string{"No Such Font"}, false, DefaultFamily},
		{nil, false, DefaultFamily},
		{[]string{"'Consolas'"}, false, MonoFamily},
	}
	for _, tt := range tests {
		face := r.Match(tt.families, tt.bold, false)
		require.NotNil(t, face, "%v", tt.families)
		assert.Equal(t, tt.want, face.Key.Family, "%v", tt.families)
		assert.Equal(t, tt.bold, face.Key.Bold, "%v", tt.families)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("Brand Mono", false, false, gomono.TTF))

	face := r.Match([]string{"brand  mono", "serif"}, false, false)
	assert.Equal(t, "Brand Mono", face.Key.Family)

	// other variants fall back to the registered regular face
	assert.Same(t, face, r.Match([]string{"Brand Mono"}, true, true))

	assert.Error(t, r.Register("Broken", false, false, []byte("not a font")))
	assert.Equal(t, DefaultFamily, r.Match([]string{"Broken"}, false, false).Key.Family)
}

func TestFill(t *testing.T) {
	word := func(w float64) Span { return Span{Width: w, Space: 5} }

	t.Run("greedy", func(t *testing.T) {
		spans := []Span{word(30), word(30), word(30), word(30)}
		lines := Fill(spans, 70, 70)
		require.Len(t, lines, 2)
		assert.Equal(t, Line{Start: 0, End: 2, Width: 65}, lines[0])
		assert.Equal(t, Line{Start: 2, End: 4, Width: 65}, lines[1])
	})

	t.Run("first line narrower", func(t *testing.T) {
		spans := []Span{word(30), word(30), word(30)}
		lines := Fill(spans, 40, 100)
		require.Len(t, lines, 2)
		assert.Equal(t, 1, lines[0].End)
		assert.Equal(t, 3, lines[1].End)
	})

	t.Run("overlong word alone", func(t *testing.T) {
		spans := []Span{word(10), word(500), word(10)}
		lines := Fill(spans, 100, 100)
		require.Len(t, lines, 3)
		assert.Equal(t, Line{Start: 1, End: 2, Width: 500}, lines[1])
	})

	t.Run("forced breaks", func(t *testing.T) {
		spans := []Span{word(10), {ForceBreak: true}, {ForceBreak: true}, word(10)}
		lines := Fill(spans, 100, 100)
		require.Len(t, lines, 3)
		assert.Equal(t, Line{Start: 0, End: 2, Width: 10}, lines[0])
		assert.Equal(t, Line{Start: 2, End: 3}, lines[1])
		assert.Equal(t, Line{Start: 3, End: 4, Width: 10}, lines[2])
	})

	t.Run("forced break after overflowing line", func(t *testing.T) {
		spans := []Span{{Width: 30}, {ForceBreak: true}, {Width: 5}}
		lines := Fill(spans, 20, 20)
		require.Len(t, lines, 2)
		assert.Equal(t, Line{Start: 0, End: 2, Width: 30}, lines[0])
		assert.Equal(t, Line{Start: 2, End: 3, Width: 5}, lines[1])
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Fill(nil, 100, 100))
	})
}

func TestBreakLines(t *testing.T) {
	face := Builtin(MonoFamily, false, false)
	width := face.MeasureString("aaa bbb", 10) + 0.01
	lines := BreakLines("aaa bbb  ccc\nddd", face, 10, width, width)
	assert.Equal(t, []string{"aaa bbb", "ccc ddd"}, lines)
	assert.Nil(t, BreakLines("   ", face, 10, width, width))
}
