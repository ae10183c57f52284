// Package pdf holds the output document model and its serializer.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"htmlpdf/pkg/images"
	"htmlpdf/pkg/text"
)

// Info is the document information dictionary.
type Info struct {
	Title    string
	Producer string
	Created  time.Time
}

// RGB is a device color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// Command is one drawing primitive of a page. Coordinates are in points
// with the origin at the top-left of the page and y growing downwards;
// the serializer flips them into PDF user space.
type Command interface {
	command()
}

// FillRect paints a rectangle.
type FillRect struct {
	X, Y, W, H float64
	Color      RGB
}

// Line strokes a straight segment. An empty Dash draws it solid.
type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          RGB
	Dash           []float64
}

// Ellipse fills or strokes the ellipse inscribed in the rectangle.
type Ellipse struct {
	X, Y, W, H float64
	Color      RGB
	Fill       bool
	Width      float64 // stroke width when not filled
}

// Text shows a string with its baseline starting at X, Y.
type Text struct {
	X, Y  float64
	Face  *text.Face
	Size  float64
	Color RGB
	Text  string
}

// Image places an image scaled to the rectangle.
type Image struct {
	X, Y, W, H float64
	Image      *images.Image
}

// PushClip saves the graphics state and intersects the clip with the
// rectangle; PopClip restores it.
type PushClip struct {
	X, Y, W, H float64
}

type PopClip struct{}

func (FillRect) command() {}
func (Line) command()     {}
func (Ellipse) command()  {}
func (Text) command()     {}
func (Image) command()    {}
func (PushClip) command() {}
func (PopClip) command()  {}

// Page is one page: its size in points and the commands drawn on it.
type Page struct {
	Width, Height float64
	Commands      []Command
}

func NewPage(width, height float64) *Page {
	return &Page{Width: width, Height: height}
}

// Add appends commands to the page.
func (p *Page) Add(cmds ...Command) {
	p.Commands = append(p.Commands, cmds...)
}

// Document is an ordered list of pages. Pages are only ever appended;
// fonts and images are embedded once per document however many pages
// use them. A Document is not safe for concurrent mutation.
type Document struct {
	Info Info
	// ID becomes the trailer /ID.
	ID    uuid.UUID
	pages []*Page
}

func New() *Document {
	return &Document{
		Info: Info{Producer: "htmlpdf", Created: time.Now()},
		ID:   uuid.New(),
	}
}

func (d *Document) PageCount() int { return len(d.pages) }

// Pages returns the pages in order. The slice is a copy.
func (d *Document) Pages() []*Page {
	return append([]*Page(nil), d.pages...)
}

// AddPages appends pages after the existing ones.
func (d *Document) AddPages(pages ...*Page) {
	d.pages = append(d.pages, pages...)
}

// Save serializes the document to w.
func (d *Document) Save(w io.Writer) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := newWriter(&buf).writeDocument(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) WriteToFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
