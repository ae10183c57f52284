// Package pdfgen runs the whole conversion: markup in, PDF pages out.
package pdfgen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/layout"
	"htmlpdf/pkg/paginate"
	"htmlpdf/pkg/pdf"
	"htmlpdf/pkg/render"
	"htmlpdf/pkg/resource"
	"htmlpdf/pkg/text"
	stdnet "htmlpdf/std/net"
)

// ErrPageGeometry is returned when the margins leave no content area.
var ErrPageGeometry = errors.New("margins leave no content area")

const footerSize = 9

// Generator converts documents. It holds no per-document state, so one
// Generator may serve concurrent calls.
type Generator struct {
	logger        *zap.Logger
	prefetchLimit int
}

type Option func(*Generator)

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithPrefetchLimit bounds how many resources one document loads at once.
func WithPrefetchLimit(n int) Option {
	return func(g *Generator) { g.prefetchLimit = n }
}

func New(opts ...Option) *Generator {
	g := &Generator{logger: zap.NewNop(), prefetchLimit: resource.DefaultPrefetchLimit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate converts markup into a new document. A nil cfg uses
// NewConfig.
func Generate(ctx context.Context, markup string, cfg *Config, opts ...Option) (*pdf.Document, error) {
	return New(opts...).Generate(ctx, markup, cfg)
}

// Append converts markup and adds its pages after the pages of doc.
func Append(ctx context.Context, doc *pdf.Document, markup string, cfg *Config, opts ...Option) error {
	return New(opts...).Append(ctx, doc, markup, cfg)
}

func (g *Generator) Generate(ctx context.Context, markup string, cfg *Config) (*pdf.Document, error) {
	doc := pdf.New()
	if err := g.Append(ctx, doc, markup, cfg); err != nil {
		return nil, err
	}
	return doc, nil
}

// Append leaves doc untouched unless the whole conversion succeeds.
// Page numbers in the footer continue from the pages already in doc.
func (g *Generator) Append(ctx context.Context, doc *pdf.Document, markup string, cfg *Config) error {
	if doc == nil {
		return errors.New("pdfgen: nil document")
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	out, err := g.convert(ctx, markup, cfg, doc.PageCount())
	if err != nil {
		return err
	}
	if doc.Info.Title == "" {
		doc.Info.Title = out.title
	}
	doc.AddPages(out.pages...)
	return nil
}

type conversion struct {
	title string
	pages []*pdf.Page
}

// paged is a document laid out and cut into page slices.
type paged struct {
	title   string
	slices  []paginate.Slice
	fonts   *text.Registry
	nodes   int
	fetches int
}

// Slices lays markup out and cuts it into pages without rendering them.
// Each slice holds page-local boxes for the content area of cfg.
func (g *Generator) Slices(ctx context.Context, markup string, cfg *Config) ([]paginate.Slice, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	p, err := g.paginate(ctx, markup, cfg)
	if err != nil {
		return nil, err
	}
	return p.slices, nil
}

func (g *Generator) paginate(ctx context.Context, markup string, cfg *Config) (*paged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, height := cfg.PageDimensions()
	margins := cfg.Margins()
	contentW, contentH := width-margins.Horizontal(), height-margins.Vertical()
	if contentW <= 0 || contentH <= 0 {
		return nil, fmt.Errorf("%w: %s page %vx%v", ErrPageGeometry, cfg.PageSize, width, height)
	}

	dom := html.Parse(markup)
	base := cfg.BaseURL
	if dom.BaseHref != "" {
		base = stdnet.ResolveURL(base, dom.BaseHref)
	}
	cache := resource.NewCache(cfg.Loader, base, g.logger)
	fonts := text.NewRegistry(g.logger)

	sheets, err := g.stylesheets(ctx, dom, cache)
	if err != nil {
		return nil, err
	}
	imgs, err := g.loadAssets(ctx, dom, sheets, cache, fonts)
	if err != nil {
		return nil, err
	}

	styles := css.NewResolver(dom, authorSheets(sheets), css.WithDPI(cfg.dpi())).ResolveAll()
	le := layout.NewLayoutEngine(dom, styles, fonts,
		layout.WithImages(imgs),
		layout.WithDPI(cfg.dpi()),
		layout.WithLogger(g.logger))
	root, err := le.Layout(contentW, contentH)
	if err != nil {
		return nil, fmt.Errorf("laying out document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices, err := paginate.Paginate(root, contentH,
		paginate.WithHeaderPolicy(cfg.HeaderPolicy),
		paginate.WithLogger(g.logger))
	if err != nil {
		return nil, fmt.Errorf("paginating document: %w", err)
	}
	return &paged{
		title:   strings.TrimSpace(dom.Title),
		slices:  slices,
		fonts:   fonts,
		nodes:   dom.Len(),
		fetches: cache.Fetches(),
	}, nil
}

func (g *Generator) convert(ctx context.Context, markup string, cfg *Config, firstPage int) (*conversion, error) {
	p, err := g.paginate(ctx, markup, cfg)
	if err != nil {
		return nil, err
	}

	width, height := cfg.PageDimensions()
	r := render.NewRenderer(width, height, cfg.Margins(), render.WithLogger(g.logger))
	footerFace := p.fonts.Match(nil, false, false)
	out := &conversion{title: p.title, pages: make([]*pdf.Page, 0, len(p.slices))}
	for _, s := range p.slices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Render(s)
		if cfg.Footer != "" {
			label := strings.ReplaceAll(cfg.Footer, "{page}", strconv.Itoa(firstPage+s.Index+1))
			r.Footer(page, label, footerFace, footerSize)
		}
		out.pages = append(out.pages, page)
	}
	g.logger.Debug("document converted",
		zap.Int("nodes", p.nodes),
		zap.Int("pages", len(out.pages)),
		zap.Stringer("page_size", cfg.PageSize),
		zap.Stringer("orientation", cfg.Orientation),
		zap.Int("fetches", p.fetches))
	return out, nil
}
