// Package imaging holds the frame classifiers, the perceptual hash and the
// border trimmer used by the photo extraction pipeline. Images are plain
// 8-bit pixel matrices decoded once per frame and discarded after use.
package imaging

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"gonum.org/v1/gonum/stat"
)

// Image is the closed set of frame representations: single-channel Gray or
// 3-channel Color. Every classifier type-switches over exactly these two.
type Image interface {
	Size() (w, h int)
	gray() *Gray
}

// Gray is a single-channel 8-bit image, row-major.
type Gray struct {
	W, H int
	Pix  []uint8
}

// Color is a 3-channel 8-bit image, RGB interleaved, row-major.
type Color struct {
	W, H int
	Pix  []uint8
}

func NewGray(w, h int) *Gray {
	return &Gray{W: w, H: h, Pix: make([]uint8, w*h)}
}

func NewColor(w, h int) *Color {
	return &Color{W: w, H: h, Pix: make([]uint8, w*h*3)}
}

func (g *Gray) Size() (int, int)  { return g.W, g.H }
func (c *Color) Size() (int, int) { return c.W, c.H }

func (g *Gray) At(x, y int) uint8 { return g.Pix[y*g.W+x] }

func (g *Gray) Set(x, y int, v uint8) { g.Pix[y*g.W+x] = v }

// At returns the r,g,b values at a pixel.
func (c *Color) At(x, y int) (uint8, uint8, uint8) {
	i := (y*c.W + x) * 3
	return c.Pix[i], c.Pix[i+1], c.Pix[i+2]
}

func (c *Color) Set(x, y int, r, g, b uint8) {
	i := (y*c.W + x) * 3
	c.Pix[i], c.Pix[i+1], c.Pix[i+2] = r, g, b
}

func (g *Gray) gray() *Gray { return g }

// gray converts to luma with the BT.601 weights.
func (c *Color) gray() *Gray {
	out := NewGray(c.W, c.H)
	for i := 0; i < c.W*c.H; i++ {
		r := float64(c.Pix[i*3])
		gc := float64(c.Pix[i*3+1])
		b := float64(c.Pix[i*3+2])
		out.Pix[i] = uint8(0.299*r + 0.587*gc + 0.114*b + 0.5)
	}
	return out
}

// Grayscale returns the single-channel view of any image.
func Grayscale(img Image) *Gray { return img.gray() }

// SubImage copies the rectangle [x0,x1)×[y0,y1) out of the image.
func (g *Gray) SubImage(x0, y0, x1, y1 int) *Gray {
	out := NewGray(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Pix[(y-y0)*out.W:(y-y0+1)*out.W], g.Pix[y*g.W+x0:y*g.W+x1])
	}
	return out
}

func (c *Color) SubImage(x0, y0, x1, y1 int) *Color {
	out := NewColor(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Pix[(y-y0)*out.W*3:(y-y0+1)*out.W*3], c.Pix[(y*c.W+x0)*3:(y*c.W+x1)*3])
	}
	return out
}

// Crop copies a rectangle out of either image variant.
func Crop(img Image, x0, y0, x1, y1 int) Image {
	switch v := img.(type) {
	case *Gray:
		return v.SubImage(x0, y0, x1, y1)
	case *Color:
		return v.SubImage(x0, y0, x1, y1)
	}
	panic("imaging: unknown image variant")
}

// DownscaleArea shrinks the image to dw×dh by averaging source boxes.
// Equivalent to area interpolation; a uniform input stays uniform.
func (g *Gray) DownscaleArea(dw, dh int) *Gray {
	out := NewGray(dw, dh)
	for dy := 0; dy < dh; dy++ {
		y0, y1 := boxBounds(dy, dh, g.H)
		for dx := 0; dx < dw; dx++ {
			x0, x1 := boxBounds(dx, dw, g.W)
			var sum, n int
			for y := y0; y < y1; y++ {
				row := g.Pix[y*g.W:]
				for x := x0; x < x1; x++ {
					sum += int(row[x])
					n++
				}
			}
			out.Pix[dy*dw+dx] = uint8((sum + n/2) / n)
		}
	}
	return out
}

func (c *Color) DownscaleArea(dw, dh int) *Color {
	out := NewColor(dw, dh)
	for dy := 0; dy < dh; dy++ {
		y0, y1 := boxBounds(dy, dh, c.H)
		for dx := 0; dx < dw; dx++ {
			x0, x1 := boxBounds(dx, dw, c.W)
			var rs, gs, bs, n int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					i := (y*c.W + x) * 3
					rs += int(c.Pix[i])
					gs += int(c.Pix[i+1])
					bs += int(c.Pix[i+2])
					n++
				}
			}
			i := (dy*dw + dx) * 3
			out.Pix[i] = uint8((rs + n/2) / n)
			out.Pix[i+1] = uint8((gs + n/2) / n)
			out.Pix[i+2] = uint8((bs + n/2) / n)
		}
	}
	return out
}

// boxBounds maps destination index d of dn to a non-empty source range.
func boxBounds(d, dn, sn int) (int, int) {
	lo := d * sn / dn
	hi := (d + 1) * sn / dn
	if hi <= lo {
		hi = lo + 1
	}
	if hi > sn {
		hi = sn
	}
	return lo, hi
}

// floats converts pixel bytes for the gonum statistics helpers.
func floats(pix []uint8) []float64 {
	out := make([]float64, len(pix))
	for i, p := range pix {
		out[i] = float64(p)
	}
	return out
}

func mean(pix []uint8) float64 {
	return stat.Mean(floats(pix), nil)
}

// popStdDev is the population standard deviation (divisor n, not n-1);
// the classifier thresholds were tuned against it.
func popStdDev(pix []uint8) float64 {
	return stat.PopStdDev(floats(pix), nil)
}

func maxPix(pix []uint8) uint8 {
	var m uint8
	for _, p := range pix {
		if p > m {
			m = p
		}
	}
	return m
}

// Load decodes a JPEG or PNG file into a Color image, or a Gray image when
// the source carries a single channel.
func Load(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(src), nil
}

// FromImage converts a decoded stdlib image into the pipeline representation.
func FromImage(src image.Image) Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := src.(*image.Gray); ok {
		out := NewGray(w, h)
		for y := 0; y < h; y++ {
			copy(out.Pix[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
		}
		return out
	}

	out := NewColor(w, h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			out.Pix[i] = uint8(r >> 8)
			out.Pix[i+1] = uint8(g >> 8)
			out.Pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return out
}

// FromRGB24 wraps a raw packed RGB frame, as produced by the rawvideo pipe.
// The buffer is copied; callers may reuse theirs.
func FromRGB24(w, h int, buf []byte) *Color {
	out := NewColor(w, h)
	copy(out.Pix, buf)
	return out
}

// ToImage converts back to a stdlib image for encoding.
func ToImage(img Image) image.Image {
	switch v := img.(type) {
	case *Gray:
		out := image.NewGray(image.Rect(0, 0, v.W, v.H))
		for y := 0; y < v.H; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+v.W], v.Pix[y*v.W:(y+1)*v.W])
		}
		return out
	case *Color:
		out := image.NewNRGBA(image.Rect(0, 0, v.W, v.H))
		for i := 0; i < v.W*v.H; i++ {
			out.Pix[i*4] = v.Pix[i*3]
			out.Pix[i*4+1] = v.Pix[i*3+1]
			out.Pix[i*4+2] = v.Pix[i*3+2]
			out.Pix[i*4+3] = 0xff
		}
		return out
	}
	panic("imaging: unknown image variant")
}

// SaveJPEG writes the image as JPEG at the given quality.
func SaveJPEG(img Image, path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := jpeg.Encode(f, ToImage(img), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}
