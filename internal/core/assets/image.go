// Package assets decodes, caches and loads the photos and avatars attached
// to reviews.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/colonyops/reviews/internal/core/review"
)

// sampleGrid bounds the number of pixels read when averaging a color.
const sampleGrid = 16

// Image is a decoded asset. Terminal views cannot draw pixels, so the
// average color is precomputed for rendering a tile.
type Image struct {
	Source      string
	Width       int
	Height      int
	Average     color.RGBA
	Placeholder bool

	pixels image.Image
}

// Pixels returns the decoded image, or nil for placeholders.
func (i Image) Pixels() image.Image {
	return i.pixels
}

// IsZero reports whether i is the zero Image (nothing loaded).
func (i Image) IsZero() bool {
	return i.Source == "" && !i.Placeholder && i.pixels == nil
}

// Decode parses data as a png, jpeg or gif image.
func Decode(source string, data []byte) (Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: image %s: %w", review.ErrDecode, source, err)
	}
	if format == "" {
		return Image{}, fmt.Errorf("%w: image %s: unknown format", review.ErrDecode, source)
	}

	b := img.Bounds()
	return Image{
		Source:  source,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Average: average(img),
		pixels:  img,
	}, nil
}

var (
	placeholderColor = color.RGBA{R: 0x3b, G: 0x42, B: 0x61, A: 0xff}
	avatarColor      = color.RGBA{R: 0x56, G: 0x5f, B: 0x89, A: 0xff}
)

// Placeholder is substituted for a photo that failed to load.
func Placeholder(source string) Image {
	return Image{Source: source, Placeholder: true, Average: placeholderColor}
}

// DefaultAvatar is shown until, or instead of, a user's avatar.
func DefaultAvatar() Image {
	return Image{Source: "avatar", Placeholder: true, Average: avatarColor}
}

// average samples up to sampleGrid x sampleGrid pixels evenly across img.
func average(img image.Image) color.RGBA {
	b := img.Bounds()
	if b.Empty() {
		return color.RGBA{}
	}

	stepX := max(b.Dx()/sampleGrid, 1)
	stepY := max(b.Dy()/sampleGrid, 1)

	var r, g, bl, a, n uint64
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			bl += uint64(cb >> 8)
			a += uint64(ca >> 8)
			n++
		}
	}

	return color.RGBA{
		R: uint8(r / n),
		G: uint8(g / n),
		B: uint8(bl / n),
		A: uint8(a / n),
	}
}
