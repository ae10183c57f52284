package layout

import (
	"math"
	"sort"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
)

const maxSpan = 1000

type tableCell struct {
	id      html.NodeID
	row     int
	col     int
	rowSpan int
	colSpan int
	box     *Box
}

type tableRow struct {
	id       html.NodeID // InvalidNode for rows made up for stray cells
	header   bool
	spanRows int
}

// tableGrid is the table's rows and cells in display order: header
// rows first, footer rows last.
type tableGrid struct {
	doc      *html.Document
	captions []html.NodeID
	rows     []tableRow
	cells    []*tableCell
	numCols  int
}

type rowSource struct {
	id    html.NodeID
	cells []html.NodeID
}

type rowGroup struct {
	rows     []rowSource
	implicit bool
}

func (le *LayoutEngine) tableGrid(table html.NodeID) *tableGrid {
	g := &tableGrid{doc: le.doc}
	var head, foot *rowGroup
	var body []*rowGroup

	implicit := func() *rowGroup {
		if n := len(body); n > 0 && body[n-1].implicit {
			return body[n-1]
		}
		grp := &rowGroup{implicit: true}
		body = append(body, grp)
		return grp
	}
	for _, c := range le.doc.Node(table).Children {
		if le.skipped(c) || le.doc.Node(c).Type != html.ElementNode {
			continue
		}
		switch le.style(c).Display {
		case css.DisplayTableCaption:
			g.captions = append(g.captions, c)
		case css.DisplayTableHeaderGroup:
			grp := &rowGroup{rows: le.groupRows(c)}
			if head == nil {
				head = grp
			} else {
				body = append(body, grp)
			}
		case css.DisplayTableFooterGroup:
			grp := &rowGroup{rows: le.groupRows(c)}
			if foot == nil {
				foot = grp
			} else {
				body = append(body, grp)
			}
		case css.DisplayTableRowGroup:
			body = append(body, &rowGroup{rows: le.groupRows(c)})
		case css.DisplayTableRow:
			grp := implicit()
			grp.rows = append(grp.rows, rowSource{id: c, cells: le.rowCells(c)})
		case css.DisplayTableCell:
			grp := implicit()
			if n := len(grp.rows); n > 0 && grp.rows[n-1].id == html.InvalidNode {
				grp.rows[n-1].cells = append(grp.rows[n-1].cells, c)
			} else {
				grp.rows = append(grp.rows, rowSource{id: html.InvalidNode, cells: []html.NodeID{c}})
			}
		}
	}

	if head != nil {
		g.place(head, true)
	}
	for _, grp := range body {
		g.place(grp, false)
	}
	if foot != nil {
		g.place(foot, false)
	}
	return g
}

// groupRows collects the rows of a row group; cells directly inside the
// group share one anonymous row.
func (le *LayoutEngine) groupRows(group html.NodeID) []rowSource {
	var rows []rowSource
	for _, c := range le.doc.Node(group).Children {
		if le.skipped(c) || le.doc.Node(c).Type != html.ElementNode {
			continue
		}
		switch le.style(c).Display {
		case css.DisplayTableRow:
			rows = append(rows, rowSource{id: c, cells: le.rowCells(c)})
		case css.DisplayTableCell:
			if n := len(rows); n > 0 && rows[n-1].id == html.InvalidNode {
				rows[n-1].cells = append(rows[n-1].cells, c)
			} else {
				rows = append(rows, rowSource{id: html.InvalidNode, cells: []html.NodeID{c}})
			}
		}
	}
	return rows
}

func (le *LayoutEngine) rowCells(row html.NodeID) []html.NodeID {
	var cells []html.NodeID
	for _, c := range le.doc.Node(row).Children {
		if le.skipped(c) || le.doc.Node(c).Type != html.ElementNode {
			continue
		}
		if le.style(c).Display == css.DisplayTableCell {
			cells = append(cells, c)
		}
	}
	return cells
}

// place assigns grid slots to the cells of one row group. Row spans stop
// at the end of their group; rowspan=0 means "to the end of the group".
func (g *tableGrid) place(grp *rowGroup, header bool) {
	first := len(g.rows)
	n := len(grp.rows)
	occupied := make(map[[2]int]bool)
	for r, src := range grp.rows {
		row := tableRow{id: src.id, header: header}
		col := 0
		for _, id := range src.cells {
			for occupied[[2]int{r, col}] {
				col++
			}
			cell := &tableCell{id: id, row: first + r, col: col, rowSpan: 1, colSpan: 1}
			node := g.doc.Node(id)
			if v, ok := attrInt(node, "colspan"); ok && v > 0 {
				cell.colSpan = min(v, maxSpan)
			}
			if v, ok := attrInt(node, "rowspan"); ok && v >= 0 {
				cell.rowSpan = v
				if v == 0 {
					cell.rowSpan = n - r
				}
			}
			cell.rowSpan = max(min(cell.rowSpan, n-r), 1)
			for dr := 0; dr < cell.rowSpan; dr++ {
				for dc := 0; dc < cell.colSpan; dc++ {
					occupied[[2]int{r + dr, col + dc}] = true
				}
			}
			row.spanRows = max(row.spanRows, cell.rowSpan-1)
			g.cells = append(g.cells, cell)
			col += cell.colSpan
		}
		g.rows = append(g.rows, row)
	}
	for slot := range occupied {
		g.numCols = max(g.numCols, slot[1]+1)
	}
}


// columnBounds computes per-column min and max widths. Single-column
// cells are measured first; a spanning cell spreads what its columns
// lack evenly over them.
func (le *LayoutEngine) columnBounds(g *tableGrid, spacing float64) (mins, maxs []float64) {
	mins = make([]float64, g.numCols)
	maxs = make([]float64, g.numCols)
	cells := append([]*tableCell(nil), g.cells...)
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].colSpan < cells[j].colSpan })
	for _, cell := range cells {
		mm := le.ComputeMinMaxSizes(cell.id)
		lo, hi := cell.col, cell.col+cell.colSpan
		if cell.colSpan == 1 {
			mins[lo] = math.Max(mins[lo], mm.MinContentSize)
			maxs[lo] = math.Max(maxs[lo], mm.MaxContentSize)
			continue
		}
		inner := spacing * float64(cell.colSpan-1)
		spread(mins[lo:hi], mm.MinContentSize-inner)
		spread(maxs[lo:hi], mm.MaxContentSize-inner)
	}
	for i := range maxs {
		maxs[i] = math.Max(maxs[i], mins[i])
	}
	return mins, maxs
}

// spread grows cols evenly until they sum to at least want.
func spread(cols []float64, want float64) {
	var have float64
	for _, c := range cols {
		have += c
	}
	if extra := want - have; extra > 0 {
		for i := range cols {
			cols[i] += extra / float64(len(cols))
		}
	}
}

// distributeWidths sizes columns to fill target. When target covers every
// max width the surplus is shared in proportion to max; between the min
// and max sums each column moves the same fraction of the way from min to
// max; below the min sum every column gets its min and the table
// overflows.
func distributeWidths(mins, maxs []float64, target float64) []float64 {
	widths := make([]float64, len(mins))
	var sumMin, sumMax float64
	for i := range mins {
		sumMin += mins[i]
		sumMax += maxs[i]
	}
	switch {
	case len(mins) == 0:
	case target >= sumMax:
		for i := range widths {
			if sumMax > 0 {
				widths[i] = maxs[i] * target / sumMax
			} else {
				widths[i] = target / float64(len(widths))
			}
		}
	case target > sumMin:
		f := (target - sumMin) / (sumMax - sumMin)
		for i := range widths {
			widths[i] = mins[i] + f*(maxs[i]-mins[i])
		}
	default:
		copy(widths, mins)
	}
	return widths
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func (le *LayoutEngine) tableSpacing(st *css.ComputedStyle) float64 {
	if st.BorderCollapse {
		return 0
	}
	return st.BorderSpacing
}

// tableMinMax measures a table: its columns, spacing and chrome.
func (le *LayoutEngine) tableMinMax(id html.NodeID) MinMaxSizes {
	st := le.style(id)
	g := le.tableGrid(id)
	spacing := le.tableSpacing(st)
	mins, maxs := le.columnBounds(g, spacing)
	extras := spacing*float64(g.numCols+1) + fixedHorizontal(st.Padding) + st.BorderBox().Horizontal()
	mm := MinMaxSizes{MinContentSize: sum(mins) + extras, MaxContentSize: sum(maxs) + extras}
	if st.Width.Unit == css.UnitPt {
		w := math.Max(st.Width.Value, mm.MinContentSize)
		mm = MinMaxSizes{MinContentSize: w, MaxContentSize: w}
	}
	for _, c := range g.captions {
		cm := le.ComputeMinMaxSizes(c)
		mm.MinContentSize = math.Max(mm.MinContentSize, cm.MinContentSize)
	}
	margins := fixedHorizontal(st.Margin)
	mm.MinContentSize += margins
	mm.MaxContentSize = math.Max(mm.MaxContentSize+margins, mm.MinContentSize)
	return mm
}

// layoutTable lays out a table whose border box starts at y. Captions go
// above the grid; a table with captions is wrapped in an anonymous block
// holding the caption boxes and the table box.
func (le *LayoutEngine) layoutTable(id html.NodeID, x, y, cbWidth float64) *Box {
	st := le.style(id)
	g := le.tableGrid(id)
	spacing := le.tableSpacing(st)
	t := &Box{
		Kind:    TableBox,
		Node:    id,
		Style:   st,
		Margin:  st.ResolveMargin(cbWidth),
		Padding: st.ResolvePadding(cbWidth),
		Border:  st.BorderBox(),
	}

	mins, maxs := le.columnBounds(g, spacing)
	extras := t.Padding.Horizontal() + t.Border.Horizontal() + spacing*float64(g.numCols+1)
	sumMin, sumMax := sum(mins), sum(maxs)
	var target float64
	if st.Width.IsAuto() {
		avail := cbWidth - t.Margin.Horizontal() - extras
		target = math.Min(sumMax, math.Max(avail, sumMin))
	} else {
		target = math.Max(st.Width.Resolve(cbWidth)-extras, sumMin)
	}
	widths := distributeWidths(mins, maxs, target)
	t.Width = sum(widths) + extras
	autoMargins(st, &t.Margin, cbWidth-t.Width-t.Margin.Horizontal())
	t.X = x + t.Margin.Left

	top := y
	var captions []*Box
	for _, c := range g.captions {
		cb := le.layoutBlock(c, t.X, top, t.Width, t.Width)
		cb.Kind = CaptionBox
		cb.Translate(t.X-cb.X, 0)
		captions = append(captions, cb)
		top = cb.Bottom() + cb.Margin.Bottom
	}
	t.Y = top

	le.layoutGrid(t, g, widths, spacing)

	if len(captions) == 0 {
		return t
	}
	wrapper := &Box{
		Kind:     AnonymousBox,
		Node:     html.InvalidNode,
		X:        t.X,
		Y:        y,
		Width:    t.Width,
		Height:   t.Bottom() - y,
		Margin:   t.Margin,
		Children: append(captions, t),
	}
	return wrapper
}

// layoutGrid lays out the rows and cells of t and sets its height.
func (le *LayoutEngine) layoutGrid(t *Box, g *tableGrid, widths []float64, spacing float64) {
	colX := make([]float64, g.numCols)
	cx := t.ContentX() + spacing
	for c := range colX {
		colX[c] = cx
		cx += widths[c] + spacing
	}

	for _, cell := range g.cells {
		w := sum(widths[cell.col:cell.col+cell.colSpan]) + spacing*float64(cell.colSpan-1)
		b := le.layoutBlock(cell.id, 0, 0, w, w)
		b.Kind = TableCellBox
		b.Margin = css.BoxEdge{}
		b.Translate(-b.X, 0)
		cell.box = b
	}

	heights := make([]float64, len(g.rows))
	for r, row := range g.rows {
		if row.id != html.InvalidNode {
			if h := le.style(row.id).Height; h.Unit == css.UnitPt {
				heights[r] = h.Value
			}
		}
	}
	for _, cell := range g.cells {
		if cell.rowSpan == 1 {
			heights[cell.row] = math.Max(heights[cell.row], cell.box.Height)
		}
	}
	for _, cell := range g.cells {
		if cell.rowSpan > 1 {
			last := cell.row + cell.rowSpan - 1
			have := sum(heights[cell.row:last+1]) + spacing*float64(cell.rowSpan-1)
			if need := cell.box.Height - have; need > 0 {
				heights[last] += need
			}
		}
	}

	rowY := make([]float64, len(g.rows))
	cy := t.ContentY() + spacing
	for r := range g.rows {
		rowY[r] = cy
		cy += heights[r] + spacing
	}
	contentHeight := 0.0
	if len(g.rows) > 0 {
		contentHeight = cy - t.ContentY()
	}

	rows := make([]*Box, len(g.rows))
	for r, row := range g.rows {
		rb := &Box{
			Kind:     TableRowBox,
			Node:     row.id,
			X:        t.ContentX(),
			Y:        rowY[r],
			Width:    math.Max(t.ContentWidth(), 0),
			Height:   heights[r],
			Header:   row.header,
			SpanRows: row.spanRows,
		}
		if row.id != html.InvalidNode {
			rb.Style = le.style(row.id)
		}
		rows[r] = rb
	}
	for _, cell := range g.cells {
		b := cell.box
		last := cell.row + cell.rowSpan - 1
		h := rowY[last] + heights[last] - rowY[cell.row]
		if free := h - b.Height; free > 0 {
			shift := 0.0
			switch b.Style.VerticalAlign {
			case css.VerticalAlignMiddle:
				shift = free / 2
			case css.VerticalAlignBottom:
				shift = free
			}
			for _, child := range b.Children {
				child.Translate(0, shift)
			}
			b.Height = h
		}
		b.Translate(colX[cell.col]-b.X, rowY[cell.row]-b.Y)
		rows[cell.row].Children = append(rows[cell.row].Children, b)
	}
	t.Children = rows
	t.Height = usedHeight(t.Style, contentHeight) + t.Padding.Vertical() + t.Border.Vertical()
	if t.Height < contentHeight+t.Padding.Vertical()+t.Border.Vertical() {
		t.Height = contentHeight + t.Padding.Vertical() + t.Border.Vertical()
	}
}
