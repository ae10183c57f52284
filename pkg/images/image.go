package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned when there are no bytes to decode.
var ErrEmpty = errors.New("images: empty image data")

// Image is a decoded image ready for embedding.
type Image struct {
	Width, Height int
	// Format is the name image.Decode reported, e.g. "png".
	Format string
	// Data holds the original JPEG stream when DCT is set, and
	// 8-bit samples in row order otherwise.
	Data []byte
	DCT  bool
	Gray bool
}

// Components is the number of color components per sample.
func (im *Image) Components() int {
	if im.Gray {
		return 1
	}
	return 3
}

// Decode reads any registered format. Baseline JPEGs in RGB or gray are
// kept as-is; everything else is decoded and flattened onto white.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decoding image: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if format == "jpeg" && (cfg.ColorModel == color.YCbCrModel || cfg.ColorModel == color.GrayModel) {
		return &Image{
			Width:  cfg.Width,
			Height: cfg.Height,
			Format: format,
			Data:   data,
			DCT:    true,
			Gray:   cfg.ColorModel == color.GrayModel,
		}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}
	im := fromImage(flatten(src))
	im.Format = format
	return im, nil
}

// flatten composites src over an opaque white background.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Over)
	return out
}

func fromImage(rgba *image.RGBA) *Image {
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			data = append(data, row[x], row[x+1], row[x+2])
		}
	}
	return &Image{Width: w, Height: h, Data: data}
}

const placeholderMax = 64

// Placeholder draws the broken-image box shown in place of an image that
// could not be loaded. The raster is small; it is scaled when placed.
func Placeholder(width, height float64) *Image {
	w, h := placeholderSize(width), placeholderSize(height)
	dc := gg.NewContext(w, h)
	dc.SetRGB255(240, 240, 240)
	dc.Clear()
	dc.SetRGB255(160, 160, 160)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(w)-1, float64(h)-1)
	dc.Stroke()
	dc.DrawLine(0, 0, float64(w), float64(h))
	dc.DrawLine(float64(w), 0, 0, float64(h))
	dc.Stroke()
	im := fromImage(flatten(dc.Image()))
	im.Format = "placeholder"
	return im
}

func placeholderSize(v float64) int {
	switch {
	case v < 1:
		return 1
	case v > placeholderMax:
		return placeholderMax
	}
	return int(v)
}
