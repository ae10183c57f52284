// Package render turns paginated box trees into PDF drawing commands.
package render

import (
	"math"

	"go.uber.org/zap"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/layout"
	"htmlpdf/pkg/paginate"
	"htmlpdf/pkg/pdf"
	"htmlpdf/pkg/text"
)

// Renderer draws page slices onto pages of one geometry.
type Renderer struct {
	width, height float64
	margins       css.BoxEdge
	logger        *zap.Logger
}

type Option func(*Renderer)

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer returns a renderer for width x height pages whose content
// area is inset by margins.
func NewRenderer(width, height float64, margins css.BoxEdge, opts ...Option) *Renderer {
	r := &Renderer{width: width, height: height, margins: margins, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentArea is the page area left inside the margins.
func (r *Renderer) ContentArea() (x, y, w, h float64) {
	return r.margins.Left, r.margins.Top,
		math.Max(r.width-r.margins.Horizontal(), 0),
		math.Max(r.height-r.margins.Vertical(), 0)
}

// Render draws one slice. Everything is clipped to the content area.
func (r *Renderer) Render(s paginate.Slice) *pdf.Page {
	page := pdf.NewPage(r.width, r.height)
	x, y, w, h := r.ContentArea()
	page.Add(pdf.PushClip{X: x, Y: y, W: w, H: h})
	if s.Root != nil {
		r.drawBox(page, s.Root)
	}
	page.Add(pdf.PopClip{})
	r.logger.Debug("page rendered", zap.Int("page", s.Index), zap.Int("commands", len(page.Commands)))
	return page
}

// Footer draws label centered in the bottom margin.
func (r *Renderer) Footer(page *pdf.Page, label string, face *text.Face, size float64) {
	if label == "" || face == nil || size <= 0 {
		return
	}
	w := face.MeasureString(label, size)
	baseline := r.height - r.margins.Bottom/2 + (face.Ascent(size)-face.Descent(size))/2
	page.Add(pdf.Text{X: (r.width - w) / 2, Y: baseline, Face: face, Size: size, Text: label})
}

// drawBox paints b before its children, in tree order.
func (r *Renderer) drawBox(page *pdf.Page, b *layout.Box) {
	visible := b.Style == nil || b.Style.Visible
	if visible {
		switch b.Kind {
		case layout.TextBox:
			r.drawText(page, b)
		case layout.MarkerBox:
			r.drawMarker(page, b)
		case layout.ImageBox:
			r.drawBackground(page, b)
			r.drawBorder(page, b)
			r.drawImage(page, b)
		case layout.LineBox, layout.AnonymousBox:
			// no decoration of their own
		default:
			r.drawBackground(page, b)
			r.drawBorder(page, b)
		}
	}
	for _, c := range b.Children {
		r.drawBox(page, c)
	}
}

func (r *Renderer) at(x, y float64) (float64, float64) {
	return x + r.margins.Left, y + r.margins.Top
}

func rgb(c css.Color) pdf.RGB {
	return pdf.RGB{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// drawBackground fills the border box.
func (r *Renderer) drawBackground(page *pdf.Page, b *layout.Box) {
	if b.Style == nil || b.Style.Background.IsTransparent() || b.Width <= 0 || b.Height <= 0 {
		return
	}
	x, y := r.at(b.X, b.Y)
	page.Add(pdf.FillRect{X: x, Y: y, W: b.Width, H: b.Height, Color: rgb(b.Style.Background)})
}

// drawBorder draws each side inside the border box. Sides are strips:
// top and bottom run the full width, left and right fill the rest.
func (r *Renderer) drawBorder(page *pdf.Page, b *layout.Box) {
	if b.Style == nil {
		return
	}
	e := b.Border
	if e.Top <= 0 && e.Right <= 0 && e.Bottom <= 0 && e.Left <= 0 {
		return
	}
	x, y := r.at(b.X, b.Y)
	st := b.Style
	r.drawBorderSide(page, x, y, b.Width, e.Top, st.BorderStyle[0], st.BorderColor[0], true)
	r.drawBorderSide(page, x+b.Width-e.Right, y+e.Top, e.Right, b.Height-e.Vertical(), st.BorderStyle[1], st.BorderColor[1], false)
	r.drawBorderSide(page, x, y+b.Height-e.Bottom, b.Width, e.Bottom, st.BorderStyle[2], st.BorderColor[2], true)
	r.drawBorderSide(page, x, y+e.Top, e.Left, b.Height-e.Vertical(), st.BorderStyle[3], st.BorderColor[3], false)
}

// drawBorderSide draws one side with its style. A horizontal side is
// height thick; a vertical one is width thick.
func (r *Renderer) drawBorderSide(page *pdf.Page, x, y, width, height float64, style css.BorderStyle, c css.Color, horizontal bool) {
	if width <= 0 || height <= 0 || c.IsTransparent() {
		return
	}
	col := rgb(c)
	thick := height
	if !horizontal {
		thick = width
	}
	switch style {
	case css.BorderNone:
		return

	case css.BorderDashed, css.BorderDotted:
		dash := []float64{3 * thick, 3 * thick}
		if style == css.BorderDotted {
			dash = []float64{thick, thick}
		}
		if horizontal {
			page.Add(pdf.Line{X1: x, Y1: y + height/2, X2: x + width, Y2: y + height/2, Width: thick, Color: col, Dash: dash})
		} else {
			page.Add(pdf.Line{X1: x + width/2, Y1: y, X2: x + width/2, Y2: y + height, Width: thick, Color: col, Dash: dash})
		}

	case css.BorderDouble:
		if thick < 3 {
			page.Add(pdf.FillRect{X: x, Y: y, W: width, H: height, Color: col})
			return
		}
		third := thick / 3
		if horizontal {
			page.Add(
				pdf.FillRect{X: x, Y: y, W: width, H: third, Color: col},
				pdf.FillRect{X: x, Y: y + height - third, W: width, H: third, Color: col},
			)
		} else {
			page.Add(
				pdf.FillRect{X: x, Y: y, W: third, H: height, Color: col},
				pdf.FillRect{X: x + width - third, Y: y, W: third, H: height, Color: col},
			)
		}

	default:
		page.Add(pdf.FillRect{X: x, Y: y, W: width, H: height, Color: col})
	}
}

// drawText draws a run with its inline background and decorations.
func (r *Renderer) drawText(page *pdf.Page, b *layout.Box) {
	if b.Text == "" || b.Face == nil {
		return
	}
	x, y := r.at(b.X, b.Y)
	if !b.Background.IsTransparent() {
		page.Add(pdf.FillRect{X: x, Y: y, W: b.Width, H: b.Height, Color: rgb(b.Background)})
	}
	col := pdf.RGB{}
	if b.Style != nil {
		col = rgb(b.Style.Color)
	}
	baseline := y + b.Baseline
	page.Add(pdf.Text{X: x, Y: baseline, Face: b.Face, Size: b.FontSize, Color: col, Text: b.Text})

	if b.Style == nil {
		return
	}
	thickness := math.Max(b.FontSize/14, 0.5)
	if b.Style.Underline {
		page.Add(pdf.FillRect{X: x, Y: baseline + b.FontSize*0.1, W: b.Width, H: thickness, Color: col})
	}
	if b.Style.LineThrough {
		page.Add(pdf.FillRect{X: x, Y: baseline - b.FontSize*0.3, W: b.Width, H: thickness, Color: col})
	}
}

// drawMarker draws a list marker: text markers like runs, glyph markers
// as shapes filling the marker box.
func (r *Renderer) drawMarker(page *pdf.Page, b *layout.Box) {
	if b.Text != "" {
		r.drawText(page, b)
		return
	}
	col := pdf.RGB{}
	if b.Style != nil {
		col = rgb(b.Style.Color)
	}
	x, y := r.at(b.X, b.Y)
	switch b.Marker {
	case "square":
		page.Add(pdf.FillRect{X: x, Y: y, W: b.Width, H: b.Height, Color: col})
	case "circle":
		page.Add(pdf.Ellipse{X: x, Y: y, W: b.Width, H: b.Height, Color: col, Width: math.Max(b.Width/8, 0.5)})
	default:
		page.Add(pdf.Ellipse{X: x, Y: y, W: b.Width, H: b.Height, Color: col, Fill: true})
	}
}

// drawImage places the image in the content box.
func (r *Renderer) drawImage(page *pdf.Page, b *layout.Box) {
	if b.Image == nil {
		return
	}
	w, h := b.ContentWidth(), b.ContentHeight()
	if w <= 0 || h <= 0 {
		return
	}
	x, y := r.at(b.ContentX(), b.ContentY())
	page.Add(pdf.Image{X: x, Y: y, W: w, H: h, Image: b.Image})
}
