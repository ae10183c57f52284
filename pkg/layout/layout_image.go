package layout

import (
	"math"
	"strings"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/images"
)

// layoutImage sizes a replaced <img> at the origin. Declared sizes win;
// one declared side keeps the aspect ratio; otherwise the natural size is
// used, shrunk to the available width. An image that failed to load gets
// a placeholder when it has a size and collapses to nothing when not.
func (le *LayoutEngine) layoutImage(id html.NodeID, cbWidth float64) *Box {
	st := le.style(id)
	b := &Box{
		Kind:    ImageBox,
		Node:    id,
		Style:   st,
		Margin:  st.ResolveMargin(cbWidth),
		Padding: st.ResolvePadding(cbWidth),
		Border:  st.BorderBox(),
	}

	var img *images.Image
	if src, ok := le.doc.Attr(id, "src"); ok && le.images != nil && strings.TrimSpace(src) != "" {
		if im, ok := le.images.Image(strings.TrimSpace(src)); ok && im.Width > 0 && im.Height > 0 {
			img = im
		}
	}

	w, hasW := definiteWidth(st.Width, cbWidth)
	h, hasH := 0.0, st.Height.Unit == css.UnitPt
	if hasH {
		h = st.Height.Value
	}
	switch {
	case hasW && hasH:
	case hasW:
		h = w
		if img != nil {
			h = w * float64(img.Height) / float64(img.Width)
		}
	case hasH:
		w = h
		if img != nil {
			w = h * float64(img.Width) / float64(img.Height)
		}
	case img != nil:
		w = float64(img.Width) * le.pxScale
		h = float64(img.Height) * le.pxScale
		if avail := cbWidth - b.Margin.Horizontal() - b.Padding.Horizontal() - b.Border.Horizontal(); cbWidth > 0 && w > avail && avail > 0 {
			h *= avail / w
			w = avail
		}
	}
	if !st.MaxWidth.IsAuto() && cbWidth > 0 {
		if limit := st.MaxWidth.Resolve(cbWidth); w > limit && w > 0 {
			if !hasH {
				h *= limit / w
			}
			w = limit
		}
	}
	w, h = math.Max(w, 0), math.Max(h, 0)

	switch {
	case img != nil:
		b.Image = img
	case w > 0 && h > 0:
		b.Image = images.Placeholder(w, h)
	}
	b.Width = w + b.Padding.Horizontal() + b.Border.Horizontal()
	b.Height = h + b.Padding.Vertical() + b.Border.Vertical()
	return b
}

func definiteWidth(l css.Length, cbWidth float64) (float64, bool) {
	switch l.Unit {
	case css.UnitPt:
		return l.Value, true
	case css.UnitPercent:
		if cbWidth > 0 {
			return l.Resolve(cbWidth), true
		}
	}
	return 0, false
}
