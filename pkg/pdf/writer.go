package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"htmlpdf/pkg/images"
	"htmlpdf/pkg/text"
)

const header = "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"

// bezier control distance for a quarter circle
const kappa = 0.5522847498

type fontRef struct {
	name string
	obj  int
	face *text.Face
}

type imageRef struct {
	name string
	obj  int
	img  *images.Image
}

type writer struct {
	buf     *bytes.Buffer
	offsets []int // byte offset of object n at index n-1

	fonts  map[text.FontKey]*fontRef
	images map[*images.Image]*imageRef
	// in first-use order
	fontOrder  []*fontRef
	imageOrder []*imageRef
}

func newWriter(buf *bytes.Buffer) *writer {
	return &writer{
		buf:    buf,
		fonts:  make(map[text.FontKey]*fontRef),
		images: make(map[*images.Image]*imageRef),
	}
}

func (w *writer) alloc() int {
	w.offsets = append(w.offsets, 0)
	return len(w.offsets)
}

func (w *writer) begin(n int) {
	w.offsets[n-1] = w.buf.Len()
	fmt.Fprintf(w.buf, "%d 0 obj\n", n)
}

func (w *writer) end() {
	w.buf.WriteString("endobj\n")
}

func (w *writer) object(n int, dict string) {
	w.begin(n)
	w.buf.WriteString(dict)
	w.buf.WriteString("\n")
	w.end()
}

// stream writes a stream object; extra is spliced into its dictionary.
func (w *writer) stream(n int, extra string, data []byte, compress bool) error {
	if compress {
		var err error
		if data, err = deflate(data); err != nil {
			return err
		}
		extra += " /Filter /FlateDecode"
	}
	w.begin(n)
	fmt.Fprintf(w.buf, "<<%s /Length %d >>\nstream\n", extra, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\n")
	w.end()
	return nil
}

func deflate(data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compressing stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing stream: %w", err)
	}
	return out.Bytes(), nil
}

func (w *writer) writeDocument(d *Document) error {
	w.buf.WriteString(header)
	catalog, pages, info := w.alloc(), w.alloc(), w.alloc()

	kids := make([]string, 0, len(d.pages))
	for _, p := range d.pages {
		obj, err := w.writePage(p, pages)
		if err != nil {
			return err
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", obj))
	}
	for _, f := range w.fontOrder {
		if err := w.writeFont(f); err != nil {
			return err
		}
	}
	for _, im := range w.imageOrder {
		if err := w.writeImage(im); err != nil {
			return err
		}
	}

	w.object(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))
	w.object(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pages))
	w.object(info, infoDict(d.Info))

	xref := w.buf.Len()
	fmt.Fprintf(w.buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(w.buf, "%010d 00000 n \n", off)
	}
	id := fmt.Sprintf("%X", d.ID[:])
	fmt.Fprintf(w.buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R /ID [<%s> <%s>] >>\n",
		len(w.offsets)+1, catalog, info, id, id)
	fmt.Fprintf(w.buf, "startxref\n%d\n%%%%EOF\n", xref)
	return nil
}

func infoDict(info Info) string {
	var sb strings.Builder
	sb.WriteString("<<")
	if info.Title != "" {
		sb.WriteString(" /Title ")
		sb.WriteString(textString(info.Title))
	}
	if info.Producer != "" {
		sb.WriteString(" /Producer ")
		sb.WriteString(textString(info.Producer))
	}
	if !info.Created.IsZero() {
		fmt.Fprintf(&sb, " /CreationDate (D:%sZ)", info.Created.UTC().Format("20060102150405"))
	}
	sb.WriteString(" >>")
	return sb.String()
}

// textString encodes a text string as UTF-16BE with a byte order mark
// unless it is plain ASCII.
func textString(s string) string {
	ascii := true
	for _, r := range s {
		if r > 0x7e || r < 0x20 {
			ascii = false
			break
		}
	}
	if ascii {
		return "(" + escape([]byte(s)) + ")"
	}
	var sb strings.Builder
	sb.WriteString("<FEFF")
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&sb, "%04X", u)
	}
	sb.WriteString(">")
	return sb.String()
}

func escape(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == '(' || c == ')' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (w *writer) writePage(p *Page, parent int) (int, error) {
	page, contents := w.alloc(), w.alloc()
	var content bytes.Buffer
	usedFonts := map[string]int{}
	usedImages := map[string]int{}
	for _, cmd := range p.Commands {
		w.emit(&content, p.Height, cmd, usedFonts, usedImages)
	}
	if err := w.stream(contents, "", content.Bytes(), true); err != nil {
		return 0, err
	}
	w.object(page, fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources %s /Contents %d 0 R >>",
		parent, num(p.Width), num(p.Height), resources(usedFonts, usedImages), contents))
	return page, nil
}

func resources(fonts, imgs map[string]int) string {
	var sb strings.Builder
	sb.WriteString("<< /ProcSet [/PDF /Text /ImageB /ImageC]")
	writeRefs := func(key string, refs map[string]int) {
		if len(refs) == 0 {
			return
		}
		names := make([]string, 0, len(refs))
		for name := range refs {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&sb, " /%s <<", key)
		for _, name := range names {
			fmt.Fprintf(&sb, " /%s %d 0 R", name, refs[name])
		}
		sb.WriteString(" >>")
	}
	writeRefs("Font", fonts)
	writeRefs("XObject", imgs)
	sb.WriteString(" >>")
	return sb.String()
}

func (w *writer) font(face *text.Face) *fontRef {
	if f, ok := w.fonts[face.Key]; ok {
		return f
	}
	f := &fontRef{name: fmt.Sprintf("F%d", len(w.fontOrder)+1), obj: w.alloc(), face: face}
	w.fonts[face.Key] = f
	w.fontOrder = append(w.fontOrder, f)
	return f
}

func (w *writer) image(img *images.Image) *imageRef {
	if im, ok := w.images[img]; ok {
		return im
	}
	im := &imageRef{name: fmt.Sprintf("Im%d", len(w.imageOrder)+1), obj: w.alloc(), img: img}
	w.images[img] = im
	w.imageOrder = append(w.imageOrder, im)
	return im
}

// emit appends the operators for cmd; y is flipped against the page
// height.
func (w *writer) emit(out io.Writer, height float64, cmd Command, fonts, imgs map[string]int) {
	switch c := cmd.(type) {
	case FillRect:
		if c.W <= 0 || c.H <= 0 {
			return
		}
		fmt.Fprintf(out, "%s rg\n%s %s %s %s re f\n", color(c.Color),
			num(c.X), num(height-c.Y-c.H), num(c.W), num(c.H))
	case Line:
		if c.Width <= 0 {
			return
		}
		dash := make([]string, len(c.Dash))
		for i, d := range c.Dash {
			dash[i] = num(d)
		}
		fmt.Fprintf(out, "q %s w %s RG [%s] 0 d\n%s %s m %s %s l S Q\n",
			num(c.Width), color(c.Color), strings.Join(dash, " "),
			num(c.X1), num(height-c.Y1), num(c.X2), num(height-c.Y2))
	case Ellipse:
		if c.W <= 0 || c.H <= 0 {
			return
		}
		path := ellipsePath(c.X, height-c.Y-c.H, c.W, c.H)
		if c.Fill {
			fmt.Fprintf(out, "%s rg\n%sf\n", color(c.Color), path)
			return
		}
		fmt.Fprintf(out, "q %s w %s RG\n%sS Q\n", num(c.Width), color(c.Color), path)
	case Text:
		if c.Face == nil || c.Text == "" || c.Size <= 0 {
			return
		}
		f := w.font(c.Face)
		fonts[f.name] = f.obj
		fmt.Fprintf(out, "BT /%s %s Tf %s rg %s %s Td (%s) Tj ET\n", f.name, num(c.Size), color(c.Color),
			num(c.X), num(height-c.Y), escape(text.EncodeWinAnsi(c.Text)))
	case Image:
		if c.Image == nil || c.W <= 0 || c.H <= 0 {
			return
		}
		im := w.image(c.Image)
		imgs[im.name] = im.obj
		fmt.Fprintf(out, "q %s 0 0 %s %s %s cm /%s Do Q\n",
			num(c.W), num(c.H), num(c.X), num(height-c.Y-c.H), im.name)
	case PushClip:
		fmt.Fprintf(out, "q %s %s %s %s re W n\n", num(c.X), num(height-c.Y-c.H), num(c.W), num(c.H))
	case PopClip:
		fmt.Fprint(out, "Q\n")
	}
}

func ellipsePath(x, y, w, h float64) string {
	rx, ry := w/2, h/2
	cx, cy := x+rx, y+ry
	ox, oy := rx*kappa, ry*kappa
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s m\n", num(cx+rx), num(cy))
	fmt.Fprintf(&sb, "%s %s %s %s %s %s c\n", num(cx+rx), num(cy+oy), num(cx+ox), num(cy+ry), num(cx), num(cy+ry))
	fmt.Fprintf(&sb, "%s %s %s %s %s %s c\n", num(cx-ox), num(cy+ry), num(cx-rx), num(cy+oy), num(cx-rx), num(cy))
	fmt.Fprintf(&sb, "%s %s %s %s %s %s c\n", num(cx-rx), num(cy-oy), num(cx-ox), num(cy-ry), num(cx), num(cy-ry))
	fmt.Fprintf(&sb, "%s %s %s %s %s %s c\n", num(cx+ox), num(cy-ry), num(cx+rx), num(cy-oy), num(cx+rx), num(cy))
	return sb.String()
}

func color(c RGB) string {
	return num(c.R) + " " + num(c.G) + " " + num(c.B)
}

// num formats v with at most three decimals.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (w *writer) writeFont(f *fontRef) error {
	face := f.face
	descriptor, file := w.alloc(), w.alloc()

	widths := face.GlyphWidths()
	ws := make([]string, 0, 224)
	for code := 32; code < 256; code++ {
		ws = append(ws, num(widths[code]))
	}
	w.object(f.obj, fmt.Sprintf(
		"<< /Type /Font /Subtype /TrueType /BaseFont /%s /FirstChar 32 /LastChar 255 /Widths [%s] /FontDescriptor %d 0 R /Encoding /WinAnsiEncoding >>",
		face.Name, strings.Join(ws, " "), descriptor))

	bbox := face.BBox()
	w.object(descriptor, fmt.Sprintf(
		"<< /Type /FontDescriptor /FontName /%s /Flags %d /FontBBox [%s %s %s %s] /ItalicAngle %s /Ascent %s /Descent %s /CapHeight %s /StemV %d /FontFile2 %d 0 R >>",
		face.Name, face.Flags(), num(bbox[0]), num(bbox[1]), num(bbox[2]), num(bbox[3]),
		num(face.ItalicAngle()), num(face.AscentUnits()), num(face.DescentUnits()), num(face.CapHeightUnits()),
		face.StemV(), file))

	return w.stream(file, fmt.Sprintf(" /Length1 %d", len(face.Program)), face.Program, true)
}

func (w *writer) writeImage(im *imageRef) error {
	img := im.img
	space := "/DeviceRGB"
	if img.Gray {
		space = "/DeviceGray"
	}
	dict := fmt.Sprintf(" /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8",
		img.Width, img.Height, space)
	if img.DCT {
		return w.stream(im.obj, dict+" /Filter /DCTDecode", img.Data, false)
	}
	return w.stream(im.obj, dict, img.Data, true)
}
