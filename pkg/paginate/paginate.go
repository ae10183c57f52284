// Package paginate cuts a laid-out flow into page-sized slices.
package paginate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"htmlpdf/pkg/layout"
)

// ErrInvariant reports an unusable page height or box tree.
var ErrInvariant = errors.New("pagination invariant violated")

// HeaderPolicy controls what happens to a table's header rows when the
// table continues on a new page.
type HeaderPolicy int

const (
	// RepeatHeaders draws the header rows again at the top of every page
	// the table continues on.
	RepeatHeaders HeaderPolicy = iota
	NoRepeat
)

func (p HeaderPolicy) String() string {
	if p == NoRepeat {
		return "none"
	}
	return "repeat"
}

// Slice is one page worth of the flow.
type Slice struct {
	Index int
	// Offset is where the page starts in flow coordinates.
	Offset float64
	// Height is the flow height the page consumes.
	Height float64
	// Root holds the page's fragments in page-local coordinates: the
	// origin is the top-left of the page content area.
	Root *layout.Box
	// Repeated lists header row copies drawn at the top of this page.
	Repeated []*layout.Box
}

type Option func(*paginator)

func WithHeaderPolicy(p HeaderPolicy) Option {
	return func(pg *paginator) { pg.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(pg *paginator) {
		if l != nil {
			pg.logger = l
		}
	}
}

const epsilon = 1e-6

// unit is a vertical span the paginator will not split unless it alone
// exceeds a page.
type unit struct {
	top, bottom float64
	breakBefore bool
	breakAfter  bool
	avoidAfter  bool
	table       *tableInfo
	header      bool
	// boxes make up the unit; an oversize unit is cut between their lines
	boxes []*layout.Box
}

type tableInfo struct {
	box     *layout.Box
	headers []*layout.Box
	// height from the table top to its first body row
	height float64
}

type pageRange struct {
	start float64
	end   float64
	lead  float64 // room taken by repeated header rows
	table *tableInfo

	clipStart, clipEnd float64
}

type paginator struct {
	height float64
	policy HeaderPolicy
	logger *zap.Logger
	units  []unit
}

// Paginate cuts the flow under root into pages pageHeight tall.
func Paginate(root *layout.Box, pageHeight float64, opts ...Option) ([]Slice, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil flow", ErrInvariant)
	}
	if !(pageHeight > 0) || math.IsInf(pageHeight, 0) {
		return nil, fmt.Errorf("%w: page height %v", ErrInvariant, pageHeight)
	}
	p := &paginator{height: pageHeight, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if !hasContent(root) {
		return nil, nil
	}
	for _, c := range root.Children {
		p.decompose(c)
	}
	if len(p.units) == 0 {
		return nil, nil
	}

	pages := p.breakPages(root)
	slices := make([]Slice, len(pages))
	for i := range pages {
		pg := &pages[i]
		pg.clipStart, pg.clipEnd = pg.start, pg.end
		if i == 0 {
			pg.clipStart = math.Inf(-1)
		}
		if i == len(pages)-1 {
			pg.clipEnd = math.Inf(1)
		}
		s := Slice{Index: i, Offset: pg.start, Height: math.Min(pg.end-pg.start, p.height-pg.lead)}
		frag, repeated := p.fragment(root, pg)
		if frag == nil {
			c := *root
			c.Children = nil
			frag = &c
		}
		frag.Translate(0, pg.lead-pg.start)
		s.Root = frag
		s.Repeated = repeated
		slices[i] = s
	}
	p.logger.Debug("paginated",
		zap.Int("units", len(p.units)),
		zap.Int("pages", len(slices)),
		zap.Stringer("header_policy", p.policy))
	return slices, nil
}

// hasContent reports whether anything in the flow would draw.
func hasContent(root *layout.Box) bool {
	found := false
	root.Walk(func(b *layout.Box) bool {
		if found {
			return false
		}
		switch b.Kind {
		case layout.TextBox, layout.ImageBox, layout.MarkerBox:
			found = true
		default:
			if b.Style != nil && b.Width > 0 && b.Height > 0 &&
				(!b.Style.Background.IsTransparent() || b.Border.Horizontal()+b.Border.Vertical() > 0) {
				found = true
			}
		}
		return !found
	})
	return found
}

// decompose splits b into units: a box that fits a page and holds no
// forced break stays whole; anything else is split between its children.
func (p *paginator) decompose(b *layout.Box) {
	mustSplit := b.Height > p.height+epsilon || hasInnerBreak(b)
	if !mustSplit || !splittable(b) {
		p.units = append(p.units, p.unitFor(b))
		return
	}
	first := len(p.units)
	if b.Kind == layout.TableBox {
		p.decomposeTable(b)
	} else {
		for _, c := range b.Children {
			p.decompose(c)
		}
	}
	if len(p.units) == first {
		p.units = append(p.units, p.unitFor(b))
		return
	}
	head, tail := &p.units[first], &p.units[len(p.units)-1]
	head.top = math.Min(head.top, b.Y)
	head.breakBefore = head.breakBefore || b.ForcedBreakBefore()
	tail.bottom = math.Max(tail.bottom, b.Bottom())
	tail.breakAfter = tail.breakAfter || b.ForcedBreakAfter()
	tail.avoidAfter = tail.avoidAfter || b.AvoidBreakAfter()
}

func (p *paginator) unitFor(b *layout.Box) unit {
	return unit{
		top:         b.Y,
		bottom:      b.Bottom(),
		breakBefore: b.ForcedBreakBefore(),
		breakAfter:  b.ForcedBreakAfter(),
		avoidAfter:  b.AvoidBreakAfter(),
		boxes:       []*layout.Box{b},
	}
}

func splittable(b *layout.Box) bool {
	switch b.Kind {
	case layout.BlockBox, layout.AnonymousBox, layout.TableBox, layout.CaptionBox:
		return len(b.Children) > 0
	}
	return false
}

func hasInnerBreak(b *layout.Box) bool {
	for _, c := range b.Children {
		if c.ForcedBreakBefore() || c.ForcedBreakAfter() || hasInnerBreak(c) {
			return true
		}
	}
	return false
}

// decomposeTable turns rows into units. Rows bound together by rowspan
// form one unit; the last header row avoids a break after it so headers
// are never left alone at the bottom of a page.
func (p *paginator) decomposeTable(t *layout.Box) {
	rows := t.Children
	info := &tableInfo{box: t}
	for _, r := range rows {
		if r.Header {
			info.headers = append(info.headers, r)
		}
	}
	if n := len(info.headers); n > 0 && n < len(rows) {
		info.height = rows[n].Y - t.Y
	}
	for i := 0; i < len(rows); {
		end := i + rows[i].SpanRows
		for k := i; k <= end && k < len(rows); k++ {
			end = max(end, k+rows[k].SpanRows)
		}
		end = min(end, len(rows)-1)
		u := unit{
			top:         rows[i].Y,
			breakBefore: rows[i].ForcedBreakBefore(),
			breakAfter:  rows[end].ForcedBreakAfter(),
			table:       info,
			header:      rows[i].Header,
			boxes:       rows[i : end+1],
		}
		for _, r := range rows[i : end+1] {
			u.bottom = math.Max(u.bottom, r.Bottom())
		}
		u.avoidAfter = u.header && end+1 == len(info.headers)
		p.units = append(p.units, u)
		i = end + 1
	}
}

// breakPages chooses the page boundaries.
func (p *paginator) breakPages(root *layout.Box) []pageRange {
	var pages []pageRange
	cur := pageRange{start: root.Y}
	firstOnPage, placed := 0, 0
	pendingBreak := false

	open := func(start float64, at int) {
		cur.end = start
		pages = append(pages, cur)
		cur = pageRange{start: start}
		p.repeatFor(&cur, at)
		firstOnPage, placed = at, 0
	}

	for i := 0; i < len(p.units); {
		u := p.units[i]
		if (u.breakBefore || pendingBreak) && placed > 0 {
			open(u.top, i)
		}
		pendingBreak = false
		if placed == 0 && u.top > cur.start && (len(pages) > 0 || u.bottom > cur.start+p.capacity(cur)+epsilon) {
			cur.start = u.top
			p.repeatFor(&cur, i)
		}
		if u.bottom <= cur.start+p.capacity(cur)+epsilon {
			placed++
			pendingBreak = u.breakAfter
			i++
			continue
		}
		if placed > 0 {
			j := i
			for j-1 > firstOnPage && p.units[j-1].avoidAfter {
				j--
			}
			open(p.units[j].top, j)
			i = j
			continue
		}
		// alone on its page and still too tall: slice it between lines
		// where it can, at the page edge where it cannot
		spans := u.leaves()
		for u.bottom > cur.start+p.capacity(cur)+epsilon {
			open(cutBefore(spans, cur.start, cur.start+p.capacity(cur)), i)
		}
		placed++
		pendingBreak = u.breakAfter
		i++
	}
	cur.end = math.Max(root.Bottom(), p.units[len(p.units)-1].bottom)
	if cur.end < cur.start {
		cur.end = cur.start
	}
	return append(pages, cur)
}

// span is the vertical extent of a line or an atomic box.
type span struct{ top, bottom float64 }

// leaves lists the line and image spans inside u, sorted by top. Lines
// are not looked into.
func (u unit) leaves() []span {
	var out []span
	for _, b := range u.boxes {
		b.Walk(func(c *layout.Box) bool {
			switch c.Kind {
			case layout.LineBox, layout.ImageBox:
				if c.Height > 0 {
					out = append(out, span{c.Y, c.Bottom()})
				}
				return false
			}
			return true
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].top < out[j].top })
	return out
}

// cutBefore returns the lowest position in (start, limit] that does not
// fall inside any span, or limit when every such position does.
func cutBefore(spans []span, start, limit float64) float64 {
	best := math.Inf(-1)
	consider := func(y float64) {
		if y <= start+epsilon || y > limit+epsilon || y <= best {
			return
		}
		for _, s := range spans {
			if s.top > y-epsilon {
				break
			}
			if y < s.bottom-epsilon {
				return
			}
		}
		best = y
	}
	for _, s := range spans {
		consider(s.top)
		consider(s.bottom)
	}
	if math.IsInf(best, -1) {
		return limit
	}
	return math.Min(best, limit)
}

func (p *paginator) capacity(pg pageRange) float64 {
	return p.height - pg.lead
}

// repeatFor sets up header repetition when the page opens inside the
// body of a table with header rows.
func (p *paginator) repeatFor(pg *pageRange, at int) {
	pg.lead, pg.table = 0, nil
	if p.policy != RepeatHeaders || at >= len(p.units) {
		return
	}
	u := p.units[at]
	if u.table == nil || u.header || len(u.table.headers) == 0 {
		return
	}
	if u.table.height <= 0 || u.table.height >= p.height/2 {
		return
	}
	if pg.start <= u.table.box.Y {
		return
	}
	pg.lead, pg.table = u.table.height, u.table
}

// fragment copies the part of b that falls on pg. Containers cut by a
// page edge lose the decoration of the cut side.
func (p *paginator) fragment(b *layout.Box, pg *pageRange) (*layout.Box, []*layout.Box) {
	switch b.Kind {
	case layout.TextBox, layout.MarkerBox:
		anchor := b.Y + b.Baseline
		if anchor >= pg.clipStart && anchor < pg.clipEnd {
			return b.Clone(), nil
		}
		return nil, nil
	case layout.ImageBox:
		if b.Y < pg.clipEnd && b.Bottom() > pg.clipStart {
			return b.Clone(), nil
		}
		return nil, nil
	}

	var kids, repeated []*layout.Box
	for _, c := range b.Children {
		f, r := p.fragment(c, pg)
		if f != nil {
			kids = append(kids, f)
		}
		repeated = append(repeated, r...)
	}
	overlaps := b.Y < pg.clipEnd && b.Bottom() > pg.clipStart && b.Height > 0
	if len(kids) == 0 && !overlaps {
		return nil, repeated
	}

	c := *b
	c.Children = kids
	bottom := b.Bottom()
	if b.Y < pg.clipStart {
		c.Y = pg.start - pg.lead
		if pg.table == nil || pg.table.box != b {
			c.Border.Top = 0
		}
	}
	if bottom > pg.clipEnd {
		bottom = pg.clipEnd
		c.Border.Bottom = 0
	}
	c.Height = math.Max(bottom-c.Y, 0)

	if pg.table != nil && pg.table.box == b && b.Y < pg.clipStart {
		dy := pg.start - pg.lead - b.Y
		headers := make([]*layout.Box, 0, len(pg.table.headers))
		for _, h := range pg.table.headers {
			hc := h.Clone()
			hc.Translate(0, dy)
			headers = append(headers, hc)
		}
		c.Children = append(headers, c.Children...)
		repeated = append(repeated, headers...)
	}
	return &c, repeated
}
