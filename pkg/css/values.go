package css

import (
	"math"
	"strconv"
	"strings"
)

type Unit int

const (
	UnitPt Unit = iota
	UnitPercent
	UnitAuto
)

// Length is an absolute length in points, a percentage of the containing
// block, or auto.
type Length struct {
	Value float64
	Unit  Unit
}

var Auto = Length{Unit: UnitAuto}

func Pt(v float64) Length { return Length{Value: v} }

func Percent(v float64) Length { return Length{Value: v, Unit: UnitPercent} }

func (l Length) IsAuto() bool { return l.Unit == UnitAuto }

// Resolve converts l to points against base. Auto resolves to 0.
func (l Length) Resolve(base float64) float64 {
	switch l.Unit {
	case UnitPercent:
		return base * l.Value / 100
	case UnitAuto:
		return 0
	}
	return l.Value
}

// lengthContext carries what relative units are resolved against.
type lengthContext struct {
	fontSize     float64
	rootFontSize float64
	pxScale      float64 // points per CSS pixel
}

// parse reads a CSS length. Unit-less zero is accepted, as is a unit-less
// number which is read as pixels the way legacy attributes use it.
func (c lengthContext) parse(val string) (Length, bool) {
	val = strings.ToLower(strings.TrimSpace(val))
	if val == "" {
		return Length{}, false
	}
	if val == "auto" {
		return Auto, true
	}
	num, unit := splitNumber(val)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Length{}, false
	}
	switch unit {
	case "", "px":
		return Pt(v * c.pxScale), true
	case "pt":
		return Pt(v), true
	case "pc":
		return Pt(v * 12), true
	case "in":
		return Pt(v * 72), true
	case "cm":
		return Pt(v * 72 / 2.54), true
	case "mm":
		return Pt(v * 72 / 25.4), true
	case "q":
		return Pt(v * 72 / 101.6), true
	case "em":
		return Pt(v * c.fontSize), true
	case "rem":
		return Pt(v * c.rootFontSize), true
	case "ex", "ch":
		return Pt(v * c.fontSize / 2), true
	case "%":
		return Percent(v), true
	}
	return Length{}, false
}

func splitNumber(val string) (string, string) {
	i := 0
	for i < len(val) {
		c := val[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' {
			i++
			continue
		}
		if c == 'e' && i > 0 && i+1 < len(val) && (val[i+1] >= '0' && val[i+1] <= '9') {
			i++
			continue
		}
		break
	}
	return val[:i], strings.TrimSpace(val[i:])
}

// ParseLength parses an absolute length at 1px = 1pt with a 12pt font.
// It is meant for presentation attributes and tests.
func ParseLength(val string) (float64, bool) {
	l, ok := lengthContext{fontSize: 12, rootFontSize: 12, pxScale: 1}.parse(val)
	if !ok || l.Unit != UnitPt {
		return 0, false
	}
	return l.Value, true
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (e BoxEdge) Horizontal() float64 { return e.Left + e.Right }

func (e BoxEdge) Vertical() float64 { return e.Top + e.Bottom }

// Color is an sRGB color; A == 0 is fully transparent.
type Color struct {
	R, G, B, A uint8
}

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{}
)

func (c Color) IsTransparent() bool { return c.A == 0 }

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 255},
	"silver":      {192, 192, 192, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"white":       {255, 255, 255, 255},
	"maroon":      {128, 0, 0, 255},
	"red":         {255, 0, 0, 255},
	"purple":      {128, 0, 128, 255},
	"fuchsia":     {255, 0, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"green":       {0, 128, 0, 255},
	"lime":        {0, 255, 0, 255},
	"olive":       {128, 128, 0, 255},
	"yellow":      {255, 255, 0, 255},
	"navy":        {0, 0, 128, 255},
	"blue":        {0, 0, 255, 255},
	"teal":        {0, 128, 128, 255},
	"aqua":        {0, 255, 255, 255},
	"cyan":        {0, 255, 255, 255},
	"orange":      {255, 165, 0, 255},
	"pink":        {255, 192, 203, 255},
	"brown":       {165, 42, 42, 255},
	"gold":        {255, 215, 0, 255},
	"indigo":      {75, 0, 130, 255},
	"violet":      {238, 130, 238, 255},
	"darkblue":    {0, 0, 139, 255},
	"darkred":     {139, 0, 0, 255},
	"darkgreen":   {0, 100, 0, 255},
	"darkgray":    {169, 169, 169, 255},
	"darkgrey":    {169, 169, 169, 255},
	"lightgray":   {211, 211, 211, 255},
	"lightgrey":   {211, 211, 211, 255},
	"lightblue":   {173, 216, 230, 255},
	"lightyellow": {255, 255, 224, 255},
	"whitesmoke":  {245, 245, 245, 255},
	"gainsboro":   {220, 220, 220, 255},
	"steelblue":   {70, 130, 180, 255},
	"slategray":   {112, 128, 144, 255},
	"crimson":     {220, 20, 60, 255},
	"coral":       {255, 127, 80, 255},
	"salmon":      {250, 128, 114, 255},
	"khaki":       {240, 230, 140, 255},
	"beige":       {245, 245, 220, 255},
	"ivory":       {255, 255, 240, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts named colors, #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb() and rgba().
func ParseColor(colorStr string) (Color, bool) {
	s := strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunc(s)
	}
	return Color{}, false
}

func parseHexColor(h string) (Color, bool) {
	var digits []uint8
	for i := 0; i < len(h); i++ {
		d, ok := hexDigit(h[i])
		if !ok {
			return Color{}, false
		}
		digits = append(digits, d)
	}
	switch len(digits) {
	case 3, 4:
		c := Color{digits[0] * 17, digits[1] * 17, digits[2] * 17, 255}
		if len(digits) == 4 {
			c.A = digits[3] * 17
		}
		return c, true
	case 6, 8:
		c := Color{digits[0]<<4 | digits[1], digits[2]<<4 | digits[3], digits[4]<<4 | digits[5], 255}
		if len(digits) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
		return c, true
	}
	return Color{}, false
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func parseRGBFunc(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, false
	}
	args := strings.FieldsFunc(s[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	var ch [4]uint8
	ch[3] = 255
	for i, a := range args {
		pct := strings.HasSuffix(a, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
		if err != nil {
			return Color{}, false
		}
		switch {
		case i == 3 && pct:
			v = v / 100 * 255
		case i == 3:
			v = v * 255
		case pct:
			v = v / 100 * 255
		}
		ch[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return Color{ch[0], ch[1], ch[2], ch[3]}, true
}
