package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Texture holds a decoded 2D image as packed colors.
//
// Sampling is nearest-neighbor and texel coordinates wrap by modulo, so
// any UV value maps to a valid texel. Row 0 is the top of the image.
type Texture struct {
	Width  int
	Height int
	Pixels []Color // Row-major pixel data
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// LoadTexture loads a texture from a PNG, JPEG, BMP or WebP file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage creates a texture from an image.Image.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex := NewTexture(width, height)

	for y := range height {
		for x := range width {
			tex.Pixels[y*width+x] = FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	return tex
}

// Image returns the texture as an RGBA image.
func (t *Texture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := range t.Height {
		for x := range t.Width {
			img.Set(x, y, t.Pixels[y*t.Width+x])
		}
	}
	return img
}

// Fit returns t scaled down with linear filtering so that neither side
// exceeds maxSize, keeping the aspect ratio. A texture that already fits
// or a non-positive maxSize returns t itself.
func (t *Texture) Fit(maxSize int) *Texture {
	if maxSize <= 0 || (t.Width <= maxSize && t.Height <= maxSize) {
		return t
	}
	w, h := maxSize, maxSize
	if t.Width > t.Height {
		h = max(1, t.Height*maxSize/t.Width)
	} else {
		w = max(1, t.Width*maxSize/t.Height)
	}
	return TextureFromImage(transform.Resize(t.Image(), w, h, transform.Linear))
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			cx := x / checkSize
			cy := y / checkSize
			if (cx+cy)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// Texel returns the pixel at (x, y) after wrapping both coordinates into
// range. An empty texture returns transparent black.
func (t *Texture) Texel(x, y int) Color {
	if t.Width <= 0 || t.Height <= 0 {
		return 0
	}
	x = wrap(x, t.Width)
	y = wrap(y, t.Height)
	return t.Pixels[y*t.Width+x]
}

// Sample returns the nearest texel for (u, v), where (0, 0) is the top-left
// corner of the image. Callers using bottom-up V must flip it first.
func (t *Texture) Sample(u, v float64) Color {
	return t.Texel(int(u*float64(t.Width)), int(v*float64(t.Height)))
}

func wrap(x, size int) int {
	x %= size
	if x < 0 {
		x += size
	}
	return x
}
