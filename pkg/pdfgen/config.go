package pdfgen

import (
	"fmt"
	"strings"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/paginate"
	"htmlpdf/pkg/resource"
)

// PageSize names a physical paper size.
type PageSize int

const (
	A4 PageSize = iota
	Letter
	Legal
	Tabloid
	Ledger
	Executive
	A3
	A5
	A6
	B4
	B5
)

type pageSizeInfo struct {
	name          string
	width, height float64 // points, portrait
}

var pageSizes = map[PageSize]pageSizeInfo{
	A4:        {"A4", 595.28, 841.89},
	Letter:    {"Letter", 612, 792},
	Legal:     {"Legal", 612, 1008},
	Tabloid:   {"Tabloid", 792, 1224},
	Ledger:    {"Ledger", 1224, 792},
	Executive: {"Executive", 522, 756},
	A3:        {"A3", 841.89, 1190.55},
	A5:        {"A5", 419.53, 595.28},
	A6:        {"A6", 297.64, 419.53},
	B4:        {"B4", 708.66, 1000.63},
	B5:        {"B5", 498.9, 708.66},
}

func (s PageSize) String() string {
	if info, ok := pageSizes[s]; ok {
		return info.name
	}
	return fmt.Sprintf("PageSize(%d)", int(s))
}

// Dimensions returns the nominal width and height in points. Unknown
// sizes fall back to A4.
func (s PageSize) Dimensions() (width, height float64) {
	info, ok := pageSizes[s]
	if !ok {
		info = pageSizes[A4]
	}
	return info.width, info.height
}

// ParsePageSize looks a size up by name, ignoring case.
func ParsePageSize(name string) (PageSize, bool) {
	for s, info := range pageSizes {
		if strings.EqualFold(info.name, strings.TrimSpace(name)) {
			return s, true
		}
	}
	return A4, false
}

type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

const (
	DefaultMargin = 10
	DefaultDPI    = 72
)

// Config describes the pages to produce. Use NewConfig for defaults; the
// margin setters ignore negative values.
type Config struct {
	PageSize    PageSize
	Orientation Orientation
	// DPI maps CSS pixels and image pixels to points: one pixel is
	// 72/DPI points.
	DPI float64
	// Loader fetches external stylesheets, fonts and images. Nil leaves
	// everything but data: URLs unavailable.
	Loader  resource.Loader
	BaseURL string
	// HeaderPolicy says whether table header rows repeat on continuation
	// pages.
	HeaderPolicy paginate.HeaderPolicy
	// Footer is drawn centered in the bottom margin of every page, with
	// {page} replaced by the page number.
	Footer string

	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
}

func NewConfig() *Config {
	c := &Config{PageSize: A4, DPI: DefaultDPI}
	c.SetMargins(DefaultMargin)
	return c
}

func (c *Config) MarginTop() float64    { return c.marginTop }
func (c *Config) MarginRight() float64  { return c.marginRight }
func (c *Config) MarginBottom() float64 { return c.marginBottom }
func (c *Config) MarginLeft() float64   { return c.marginLeft }

func (c *Config) SetMarginTop(v float64)    { setMargin(&c.marginTop, v) }
func (c *Config) SetMarginRight(v float64)  { setMargin(&c.marginRight, v) }
func (c *Config) SetMarginBottom(v float64) { setMargin(&c.marginBottom, v) }
func (c *Config) SetMarginLeft(v float64)   { setMargin(&c.marginLeft, v) }

// SetMargins sets all four margins.
func (c *Config) SetMargins(v float64) {
	c.SetMarginTop(v)
	c.SetMarginRight(v)
	c.SetMarginBottom(v)
	c.SetMarginLeft(v)
}

func setMargin(dst *float64, v float64) {
	if v >= 0 {
		*dst = v
	}
}

// PageDimensions is the page size with the orientation applied.
func (c *Config) PageDimensions() (width, height float64) {
	w, h := c.PageSize.Dimensions()
	if c.Orientation == Landscape {
		return h, w
	}
	return w, h
}

// Margins returns the margins as a box edge.
func (c *Config) Margins() css.BoxEdge {
	return css.BoxEdge{Top: c.marginTop, Right: c.marginRight, Bottom: c.marginBottom, Left: c.marginLeft}
}

func (c *Config) dpi() float64 {
	if c.DPI > 0 {
		return c.DPI
	}
	return DefaultDPI
}
