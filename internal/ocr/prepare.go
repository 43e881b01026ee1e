package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// DefaultMinWidth is the width below which scans are upscaled before OCR
const DefaultMinWidth = 1600

// Prepared is an image re-encoded for recognition
type Prepared struct {
	PNG []byte
	// Bounds is the size of the original decoded image
	Bounds image.Rectangle
	// Factor converts prepared pixel coordinates back to original pixels
	Factor float64
}

// Prepare decodes PNG, JPEG, GIF, TIFF or BMP data and re-encodes it as PNG,
// upscaling images narrower than minWidth. minWidth <= 0 disables scaling.
func Prepare(data []byte, minWidth int) (Prepared, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return Prepared{}, fmt.Errorf("empty %s image", format)
	}

	out := src
	factor := 1.0
	if minWidth > 0 && b.Dx() < minWidth {
		k := float64(minWidth) / float64(b.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, minWidth, int(float64(b.Dy())*k+0.5)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = dst
		factor = float64(b.Dx()) / float64(minWidth)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Prepared{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return Prepared{PNG: buf.Bytes(), Bounds: b, Factor: factor}, nil
}

// Recognize prepares data and runs r over it. Word boxes are returned in the
// pixel space of the original image.
func Recognize(ctx context.Context, r Recognizer, data []byte, minWidth int) ([]Word, image.Rectangle, error) {
	p, err := Prepare(data, minWidth)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	words, err := r.Recognize(ctx, p.PNG)
	if err != nil {
		return nil, p.Bounds, err
	}
	if p.Factor != 1 {
		for i := range words {
			words[i].Box = scaleRect(words[i].Box, p.Factor)
		}
	}
	return words, p.Bounds, nil
}

func scaleRect(r image.Rectangle, f float64) image.Rectangle {
	sc := func(v int) int { return int(float64(v)*f + 0.5) }
	return image.Rect(sc(r.Min.X), sc(r.Min.Y), sc(r.Max.X), sc(r.Max.Y))
}
