package pdfgen

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/images"
	"htmlpdf/pkg/resource"
	"htmlpdf/pkg/text"
	stdnet "htmlpdf/std/net"
)

// maxImportDepth bounds @import chains.
const maxImportDepth = 4

// sheetSource is a parsed stylesheet and the URL its relative references
// resolve against.
type sheetSource struct {
	sheet *css.Stylesheet
	base  string
}

// stylesheets collects <style> and <link> sheets in document order.
// Linked sheets are fetched concurrently first; a sheet that cannot be
// loaded is skipped.
func (g *Generator) stylesheets(ctx context.Context, dom *html.Document, cache *resource.Cache) ([]sheetSource, error) {
	var hrefs []string
	for _, ref := range dom.Styles {
		if ref.Href != "" && css.MediaApplies(ref.Media) {
			hrefs = append(hrefs, ref.Href)
		}
	}
	if err := cache.Prefetch(ctx, hrefs, g.prefetchLimit); err != nil {
		return nil, err
	}

	var out []sheetSource
	for _, ref := range dom.Styles {
		if !css.MediaApplies(ref.Media) {
			continue
		}
		if ref.Href == "" {
			sheets, err := g.withImports(ctx, cache, css.ParseStylesheet(ref.Text), cache.Resolve(""), 0)
			if err != nil {
				return nil, err
			}
			out = append(out, sheets...)
			continue
		}
		sheets, err := g.fetchSheet(ctx, cache, cache.Resolve(ref.Href), 0)
		if err != nil {
			return nil, err
		}
		out = append(out, sheets...)
	}
	return out, nil
}

func (g *Generator) fetchSheet(ctx context.Context, cache *resource.Cache, url string, depth int) ([]sheetSource, error) {
	data, err := cache.Fetch(ctx, url)
	if errors.Is(err, resource.ErrUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g.withImports(ctx, cache, css.ParseStylesheet(resource.DecodeText(data, "text/css")), url, depth)
}

// authorSheets drops the base URLs, keeping document order.
func authorSheets(sources []sheetSource) []*css.Stylesheet {
	out := make([]*css.Stylesheet, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.sheet)
	}
	return out
}

// withImports puts the sheets imported by sheet before it.
func (g *Generator) withImports(ctx context.Context, cache *resource.Cache, sheet *css.Stylesheet, base string, depth int) ([]sheetSource, error) {
	var out []sheetSource
	if depth < maxImportDepth {
		for _, imp := range sheet.Imports {
			sheets, err := g.fetchSheet(ctx, cache, stdnet.ResolveURL(base, imp), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sheets...)
		}
	} else if len(sheet.Imports) > 0 {
		g.logger.Warn("import chain too deep", zap.String("url", base))
	}
	return append(out, sheetSource{sheet: sheet, base: base}), nil
}

// imageSet maps the src attributes of a document to decoded images.
type imageSet struct {
	mu    sync.RWMutex
	byRef map[string]*images.Image
}

func (s *imageSet) Image(src string) (*images.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	im, ok := s.byRef[src]
	return im, ok
}

func (s *imageSet) add(src string, im *images.Image) {
	s.mu.Lock()
	s.byRef[src] = im
	s.mu.Unlock()
}

// loadAssets registers @font-face programs and decodes <img> sources,
// all concurrently. Anything that fails to load or decode is left out;
// layout falls back to the next font family or a placeholder.
func (g *Generator) loadAssets(ctx context.Context, dom *html.Document, sheets []sheetSource, cache *resource.Cache, fonts *text.Registry) (*imageSet, error) {
	set := &imageSet{byRef: make(map[string]*images.Image)}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.prefetchLimit, 1))

	for _, src := range imageSources(dom) {
		src := src
		eg.Go(func() error {
			data, err := cache.Fetch(ectx, src)
			if errors.Is(err, resource.ErrUnavailable) {
				return nil
			}
			if err != nil {
				return err
			}
			im, err := images.Decode(data)
			if err != nil {
				g.logger.Warn("image not decodable", zap.String("src", src), zap.Error(err))
				return nil
			}
			set.add(src, im)
			return nil
		})
	}

	for _, s := range sheets {
		for _, ff := range s.sheet.FontFaces {
			ff := ff
			base := s.base
			eg.Go(func() error {
				return g.loadFontFace(ectx, cache, fonts, ff, base)
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return set, ctx.Err()
}

// loadFontFace registers the first source of ff that loads and parses.
func (g *Generator) loadFontFace(ctx context.Context, cache *resource.Cache, fonts *text.Registry, ff css.FontFace, base string) error {
	for _, src := range ff.Sources {
		data, err := cache.Fetch(ctx, stdnet.ResolveURL(base, src))
		if errors.Is(err, resource.ErrUnavailable) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fonts.Register(ff.Family, ff.Bold, ff.Italic, data); err != nil {
			g.logger.Warn("font program rejected",
				zap.String("family", ff.Family),
				zap.String("src", src),
				zap.Error(err))
			continue
		}
		return nil
	}
	g.logger.Warn("font face unavailable", zap.String("family", ff.Family))
	return nil
}

// imageSources lists the distinct non-empty img sources in document order.
func imageSources(dom *html.Document) []string {
	var out []string
	seen := make(map[string]bool)
	dom.Walk(dom.Root, func(id html.NodeID) bool {
		n := dom.Node(id)
		if n.Type == html.ElementNode && n.Atom == atom.Img {
			src, _ := n.GetAttribute("src")
			src = strings.TrimSpace(src)
			if src != "" && !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
		return true
	})
	return out
}
