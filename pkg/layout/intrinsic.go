package layout

import (
	"math"

	"golang.org/x/net/html/atom"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
)

// ComputeMinMaxSizes returns the min-content and max-content widths of
// the subtree at id, horizontal margins included. Results are memoized.
func (le *LayoutEngine) ComputeMinMaxSizes(id html.NodeID) MinMaxSizes {
	if mm, ok := le.intrinsic[id]; ok {
		return mm
	}
	mm := le.computeMinMax(id)
	le.intrinsic[id] = mm
	return mm
}

func (le *LayoutEngine) computeMinMax(id html.NodeID) MinMaxSizes {
	n := le.doc.Node(id)
	if n == nil || le.skipped(id) {
		return MinMaxSizes{}
	}
	if n.Type == html.TextNode {
		return le.inlineMinMax([]html.NodeID{id})
	}
	st := le.style(id)
	if st.Display == css.DisplayTable {
		return le.tableMinMax(id)
	}
	margins := fixedHorizontal(st.Margin)
	if n.Atom == atom.Img {
		w := le.layoutImage(id, 0).Width + margins
		return MinMaxSizes{MinContentSize: w, MaxContentSize: w}
	}

	content := le.contentMinMax(id)
	if st.Width.Unit == css.UnitPt {
		w := st.Width.Value
		if st.Display == css.DisplayTableCell {
			w = math.Max(w, content.MinContentSize)
		}
		content = MinMaxSizes{MinContentSize: w, MaxContentSize: w}
	}
	if st.MaxWidth.Unit == css.UnitPt {
		content.MinContentSize = math.Min(content.MinContentSize, st.MaxWidth.Value)
		content.MaxContentSize = math.Min(content.MaxContentSize, st.MaxWidth.Value)
	}
	if st.MinWidth.Unit == css.UnitPt {
		content.MinContentSize = math.Max(content.MinContentSize, st.MinWidth.Value)
		content.MaxContentSize = math.Max(content.MaxContentSize, st.MinWidth.Value)
	}
	extras := fixedHorizontal(st.Padding) + st.BorderBox().Horizontal() + margins
	return MinMaxSizes{
		MinContentSize: content.MinContentSize + extras,
		MaxContentSize: math.Max(content.MaxContentSize, content.MinContentSize) + extras,
	}
}

// contentMinMax measures the children of id: block children stack, so
// the widest wins; inline runs are measured as paragraphs.
func (le *LayoutEngine) contentMinMax(id html.NodeID) MinMaxSizes {
	var mm MinMaxSizes
	var run []html.NodeID
	add := func(r MinMaxSizes) {
		mm.MinContentSize = math.Max(mm.MinContentSize, r.MinContentSize)
		mm.MaxContentSize = math.Max(mm.MaxContentSize, r.MaxContentSize)
	}
	for _, c := range le.doc.Node(id).Children {
		if le.skipped(c) {
			continue
		}
		if !le.blockLevel(c) {
			run = append(run, c)
			continue
		}
		if len(run) > 0 {
			add(le.inlineMinMax(run))
			run = nil
		}
		add(le.ComputeMinMaxSizes(c))
	}
	if len(run) > 0 {
		add(le.inlineMinMax(run))
	}
	return mm
}

// inlineMinMax: the min-content width is the widest unbreakable item and
// the max-content width is the longest forced line.
func (le *LayoutEngine) inlineMinMax(run []html.NodeID) MinMaxSizes {
	c := &inlineCollector{le: le, measure: true}
	for _, id := range run {
		c.collect(id)
	}
	var mm MinMaxSizes
	line, started := 0.0, false
	for _, it := range c.finish() {
		mm.MinContentSize = math.Max(mm.MinContentSize, it.minWidth)
		if started {
			line += it.space
		}
		line += it.width
		started = true
		if it.forceBreak {
			mm.MaxContentSize = math.Max(mm.MaxContentSize, line)
			line, started = 0, false
		}
	}
	mm.MaxContentSize = math.Max(mm.MaxContentSize, line)
	return mm
}

// fixedHorizontal sums the left and right edges that do not depend on
// the containing block.
func fixedHorizontal(e [4]css.Length) float64 {
	var sum float64
	for _, l := range []css.Length{e[1], e[3]} {
		if l.Unit == css.UnitPt {
			sum += l.Value
		}
	}
	return sum
}
