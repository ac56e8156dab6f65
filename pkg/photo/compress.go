package photo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1024
	DefaultQuality      = 70
)

// JPEGCompressor decodes JPEG, PNG or WebP input, fits it within
// MaxDimension on its longest side, and re-encodes it as JPEG.
type JPEGCompressor struct {
	MaxDimension int
	Quality      int
}

func NewJPEGCompressor() *JPEGCompressor {
	return &JPEGCompressor{
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
	}
}

func (c *JPEGCompressor) Compress(ctx context.Context, r io.Reader) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = fit(img, c.maxDimension())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality()}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so neither side exceeds limit and flattens it onto
// white, since JPEG has no alpha channel.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nw, nh := w, h
	if w > limit || h > limit {
		if w >= h {
			nw, nh = limit, h*limit/w
		} else {
			nw, nh = w*limit/h, limit
		}
	}
	nw, nh = atLeastOne(nw), atLeastOne(nh)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if nw == w && nh == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (c *JPEGCompressor) maxDimension() int {
	if c.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return c.MaxDimension
}

func (c *JPEGCompressor) quality() int {
	if c.Quality <= 0 || c.Quality > 100 {
		return DefaultQuality
	}
	return c.Quality
}
