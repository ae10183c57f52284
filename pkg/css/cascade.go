package css

import (
	"sort"

	"htmlpdf/pkg/html"
)

// Origin orders style sources, lowest precedence first.
type Origin int

const (
	OriginInitial Origin = iota
	OriginInherited
	OriginUserAgent
	OriginPresentational
	OriginAuthor
	OriginInline
)

// Source is one contributor to a node's cascade.
type Source struct {
	Origin       Origin
	Specificity  Specificity
	Order        int
	Declarations []Declaration
}

// Merge folds sources into specified values. It does not modify its input:
// sources are ordered by origin, specificity and order, and later ones win.
// Important declarations are applied in a second pass above all normal ones.
func Merge(sources []Source) *Style {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.Specificity != b.Specificity {
			return a.Specificity.Less(b.Specificity)
		}
		return a.Order < b.Order
	})

	style := NewStyle()
	for _, important := range []bool{false, true} {
		for _, src := range sorted {
			for _, d := range src.Declarations {
				if d.Important == important {
					style.Set(d.Property, d.Value)
				}
			}
		}
	}
	return style
}

type orderedRule struct {
	rule  Rule
	order int
}

// Resolver computes styles for one document.
type Resolver struct {
	doc          *html.Document
	ua           []orderedRule
	author       []orderedRule
	pxScale      float64
	rootFontSize float64
}

type ResolverOption func(*Resolver)

// WithDPI sets the resolution CSS pixels are mapped at: one pixel is
// 72/dpi points.
func WithDPI(dpi float64) ResolverOption {
	return func(r *Resolver) {
		if dpi > 0 {
			r.pxScale = 72 / dpi
		}
	}
}

// NewResolver prepares the author sheets in the given order; later sheets
// win ties.
func NewResolver(doc *html.Document, sheets []*Stylesheet, opts ...ResolverOption) *Resolver {
	r := &Resolver{doc: doc, pxScale: 1, rootFontSize: 12}
	for _, rule := range userAgentSheet().Rules {
		r.ua = append(r.ua, orderedRule{rule: rule, order: len(r.ua)})
	}
	for _, sheet := range sheets {
		if sheet == nil {
			continue
		}
		for _, rule := range sheet.Rules {
			r.author = append(r.author, orderedRule{rule: rule, order: len(r.author)})
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sources lists every style source for id, in precedence order.
func (r *Resolver) Sources(id html.NodeID) []Source {
	sources := []Source{
		{Origin: OriginInitial, Declarations: initialDeclarations},
		{Origin: OriginInherited, Declarations: inheritDeclarations},
	}
	n := r.doc.Node(id)
	if n == nil || n.Type != html.ElementNode {
		return sources
	}

	sources = append(sources, r.matching(id, OriginUserAgent, r.ua)...)
	if decls := PresentationalDeclarations(r.doc, id); len(decls) > 0 {
		sources = append(sources, Source{Origin: OriginPresentational, Declarations: decls})
	}
	sources = append(sources, r.matching(id, OriginAuthor, r.author)...)
	if styleAttr, ok := n.GetAttribute("style"); ok {
		if decls := ParseInlineStyle(styleAttr); len(decls) > 0 {
			sources = append(sources, Source{Origin: OriginInline, Declarations: decls})
		}
	}
	return sources
}

func (r *Resolver) matching(id html.NodeID, origin Origin, rules []orderedRule) []Source {
	var out []Source
	for _, or := range rules {
		if MatchesSelector(r.doc, id, or.rule.Selector) {
			out = append(out, Source{
				Origin:       origin,
				Specificity:  or.rule.Selector.Specificity,
				Order:        or.order,
				Declarations: or.rule.Declarations,
			})
		}
	}
	return out
}

// Resolve computes the style of id given its parent's computed style.
// A nil inherited style means id is the root.
func (r *Resolver) Resolve(id html.NodeID, inherited *ComputedStyle) *ComputedStyle {
	specified := Merge(r.Sources(id))
	ctx := computeContext{parent: inherited, rootFontSize: r.rootFontSize, pxScale: r.pxScale}
	cs := ctx.compute(specified)
	if n := r.doc.Node(id); n != nil && n.Type == html.TextNode {
		cs.Display = DisplayInline
	}
	return cs
}

// ResolveAll computes a style for every node, indexed by NodeID.
func (r *Resolver) ResolveAll() []*ComputedStyle {
	styles := make([]*ComputedStyle, r.doc.Len())
	root := InitialStyle()
	root.Display = DisplayBlock
	styles[r.doc.Root] = root
	for _, c := range r.doc.Node(r.doc.Root).Children {
		r.resolveTree(c, root, styles)
	}
	return styles
}

func (r *Resolver) resolveTree(id html.NodeID, parent *ComputedStyle, styles []*ComputedStyle) {
	cs := r.Resolve(id, parent)
	styles[id] = cs
	if n := r.doc.Node(id); n.TagName == "html" && n.Type == html.ElementNode {
		r.rootFontSize = cs.FontSize
	}
	for _, c := range r.doc.Node(id).Children {
		r.resolveTree(c, cs, styles)
	}
}
