package layout

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"htmlpdf/pkg/css"
	"htmlpdf/pkg/html"
	"htmlpdf/pkg/images"
	"htmlpdf/pkg/text"
)

// ErrInvariant reports a geometry the engine must never produce, such as
// a negative or non-finite size.
var ErrInvariant = errors.New("layout invariant violated")

// ImageSource hands out decoded images by their src attribute.
type ImageSource interface {
	Image(src string) (*images.Image, bool)
}

// LayoutEngine lays out one styled document. It is not safe for
// concurrent use; create one per document.
type LayoutEngine struct {
	doc     *html.Document
	styles  []*css.ComputedStyle
	fonts   *text.Registry
	images  ImageSource
	pxScale float64
	logger  *zap.Logger

	faces      map[*css.ComputedStyle]*text.Face
	intrinsic  map[html.NodeID]MinMaxSizes
	hasBlock   map[html.NodeID]bool
	defaultCSS *css.ComputedStyle
}

type Option func(*LayoutEngine)

func WithImages(src ImageSource) Option {
	return func(le *LayoutEngine) { le.images = src }
}

// WithDPI sets how image pixels map to points.
func WithDPI(dpi float64) Option {
	return func(le *LayoutEngine) {
		if dpi > 0 {
			le.pxScale = 72 / dpi
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(le *LayoutEngine) {
		if l != nil {
			le.logger = l
		}
	}
}

// NewLayoutEngine prepares layout of doc. styles is indexed by NodeID as
// returned by css.Resolver.ResolveAll.
func NewLayoutEngine(doc *html.Document, styles []*css.ComputedStyle, fonts *text.Registry, opts ...Option) *LayoutEngine {
	le := &LayoutEngine{
		doc:        doc,
		styles:     styles,
		fonts:      fonts,
		pxScale:    1,
		logger:     zap.NewNop(),
		faces:      make(map[*css.ComputedStyle]*text.Face),
		intrinsic:  make(map[html.NodeID]MinMaxSizes),
		hasBlock:   make(map[html.NodeID]bool),
		defaultCSS: css.InitialStyle(),
	}
	if le.fonts == nil {
		le.fonts = text.NewRegistry(nil)
	}
	for _, opt := range opts {
		opt(le)
	}
	return le
}

// Layout lays the document out in a flow contentWidth wide. The height
// hint is informational; the flow itself is unbounded.
func (le *LayoutEngine) Layout(contentWidth, contentHeightHint float64) (*Box, error) {
	if !(contentWidth > 0) || math.IsInf(contentWidth, 0) {
		return nil, fmt.Errorf("%w: content width %v", ErrInvariant, contentWidth)
	}
	root := &Box{Kind: BlockBox, Node: le.doc.Root, Style: le.style(le.doc.Root), Width: contentWidth}
	root.Height = le.layoutChildren(root, le.doc.Root, contentWidth)
	if err := validate(root); err != nil {
		return nil, err
	}
	le.logger.Debug("layout done",
		zap.Float64("width", contentWidth),
		zap.Float64("height", root.Height),
		zap.Float64("page_height_hint", contentHeightHint))
	return root, nil
}

func (le *LayoutEngine) style(id html.NodeID) *css.ComputedStyle {
	if int(id) >= 0 && int(id) < len(le.styles) && le.styles[id] != nil {
		return le.styles[id]
	}
	return le.defaultCSS
}

func (le *LayoutEngine) face(st *css.ComputedStyle) *text.Face {
	if f, ok := le.faces[st]; ok {
		return f
	}
	f := le.fonts.Match(st.FontFamily, st.Bold, st.Italic)
	le.faces[st] = f
	return f
}

func validate(root *Box) error {
	var err error
	root.Walk(func(b *Box) bool {
		if err != nil {
			return false
		}
		for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				err = fmt.Errorf("%w: %s box of node %d has non-finite geometry", ErrInvariant, b.Kind, b.Node)
				return false
			}
		}
		if b.Width < -epsilon || b.Height < -epsilon {
			err = fmt.Errorf("%w: %s box of node %d has size %.2fx%.2f", ErrInvariant, b.Kind, b.Node, b.Width, b.Height)
			return false
		}
		return true
	})
	return err
}

const epsilon = 1e-6
