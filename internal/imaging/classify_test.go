package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyColor fills the image with a deterministic high-variance pattern.
func noisyColor(w, h int) *Color {
	c := NewColor(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.Set(x, y,
				uint8((x*13+y*7)%256),
				uint8((x*29+y*3)%256),
				uint8((x*5+y*23)%256))
		}
	}
	return c
}

// mattedPhoto is a uniform mat with noisy content in the middle.
func mattedPhoto(w, h, matPx int, mat uint8) *Color {
	c := uniformColor(w, h, mat, mat, mat)
	inner := noisyColor(w-2*matPx, h-2*matPx)
	for y := 0; y < inner.H; y++ {
		for x := 0; x < inner.W; x++ {
			r, g, b := inner.At(x, y)
			c.Set(x+matPx, y+matPx, r, g, b)
		}
	}
	return c
}

func TestDetectUniformBordersMatted(t *testing.T) {
	img := mattedPhoto(120, 100, 10, 180)
	assert.True(t, DetectUniformBorders(img, DefaultBorderWidth, DefaultBorderStd, DefaultPillarboxStd))
}

func TestDetectUniformBordersFullFrameContent(t *testing.T) {
	img := noisyColor(120, 100)
	assert.False(t, DetectUniformBorders(img, DefaultBorderWidth, DefaultBorderStd, DefaultPillarboxStd))
}

func TestDetectUniformBordersPillarbox(t *testing.T) {
	// Black side bars, content running edge to edge vertically.
	img := noisyColor(120, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, 0, 0, 0)
			img.Set(119-x, y, 0, 0, 0)
		}
	}
	assert.True(t, DetectUniformBorders(img, DefaultBorderWidth, DefaultBorderStd, DefaultPillarboxStd))
}

func TestDetectUniformBordersLetterbox(t *testing.T) {
	// Black top/bottom bars, content running edge to edge horizontally.
	img := noisyColor(120, 100)
	for y := 0; y < 20; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, 0, 0, 0)
			img.Set(x, 99-y, 0, 0, 0)
		}
	}
	assert.True(t, DetectUniformBorders(img, DefaultBorderWidth, DefaultBorderStd, DefaultPillarboxStd))
}

func TestDetectUniformBordersDarkBarsAreNotPillarbox(t *testing.T) {
	// Uniform but clearly non-black side bars must not qualify: a dark
	// video scene is not a pillarboxed photo.
	img := noisyColor(120, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, 10, 10, 10)
			img.Set(119-x, y, 10, 10, 10)
		}
	}
	assert.False(t, DetectUniformBorders(img, DefaultBorderWidth, DefaultBorderStd, DefaultPillarboxStd))
}

func TestDetectUniformBordersTinyImage(t *testing.T) {
	assert.False(t, DetectUniformBorders(uniformColor(3, 3, 0, 0, 0),
		DefaultBorderWidth, DefaultBorderStd, DefaultPillarboxStd))
}

func TestNearUniform(t *testing.T) {
	assert.NotNil(t, NearUniform(uniformColor(50, 50, 30, 30, 30), DefaultUniformStd))
	assert.Nil(t, NearUniform(noisyColor(50, 50), DefaultUniformStd))
}

func TestScreenshotWhiteBackground(t *testing.T) {
	// 60% white UI chrome around a small content area.
	img := uniformColor(128, 128, 255, 255, 255)
	content := noisyColor(128, 51)
	for y := 0; y < content.H; y++ {
		for x := 0; x < content.W; x++ {
			r, g, b := content.At(x, y)
			img.Set(x, y+40, r, g, b)
		}
	}

	reason := Screenshot(img, DefaultColorCountMin, DefaultSampleSize)
	require.NotNil(t, reason)
	assert.Equal(t, ScreenshotFrame, reason.Code)
	assert.Contains(t, reason.Detail, "white background")
}

func TestScreenshotGrayscaleBypassed(t *testing.T) {
	assert.Nil(t, Screenshot(uniformGray(128, 128, 255), DefaultColorCountMin, DefaultSampleSize))
}

func TestScreenshotMonochromeColorBypassed(t *testing.T) {
	// r==g==b everywhere: the channel-diff gate must skip the color count.
	img := NewColor(128, 128)
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint8((x*13 + y*7) % 200)
			img.Set(x, y, v, v, v)
		}
	}
	assert.Nil(t, Screenshot(img, DefaultColorCountMin, DefaultSampleSize))
}

func TestScreenshotFlatColorBlocks(t *testing.T) {
	// Four saturated blocks: colorful, no white, but only four distinct
	// colors. Typical of UI and slides.
	img := NewColor(128, 128)
	colors := [4][3]uint8{{200, 0, 0}, {0, 200, 0}, {0, 0, 200}, {200, 200, 0}}
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			c := colors[(y/64)*2+(x/64)]
			img.Set(x, y, c[0], c[1], c[2])
		}
	}

	reason := Screenshot(img, DefaultColorCountMin, DefaultSampleSize)
	require.NotNil(t, reason)
	assert.Contains(t, reason.Detail, "unique colors")
}

func TestScreenshotAcceptsPhotograph(t *testing.T) {
	assert.Nil(t, Screenshot(noisyColor(128, 128), DefaultColorCountMin, DefaultSampleSize))
}

func TestRejectTooSmall(t *testing.T) {
	reason := Reject(noisyColor(100, 100), 200*200)
	require.NotNil(t, reason)
	assert.Equal(t, TooSmall, reason.Code)
	assert.Equal(t, "too small (100x100)", reason.String())
}

func TestRejectNearUniform(t *testing.T) {
	reason := Reject(uniformColor(1200, 1200, 30, 30, 30), 0)
	require.NotNil(t, reason)
	assert.Contains(t, reason.String(), "near-uniform")
}

func TestRejectScreenshot(t *testing.T) {
	img := NewColor(1200, 1200)
	colors := [4][3]uint8{{200, 0, 0}, {0, 200, 0}, {0, 0, 200}, {200, 200, 0}}
	for y := 0; y < 1200; y++ {
		for x := 0; x < 1200; x++ {
			c := colors[(y/600)*2+(x/600)]
			img.Set(x, y, c[0], c[1], c[2])
		}
	}

	reason := Reject(img, 0)
	require.NotNil(t, reason)
	assert.Contains(t, reason.String(), "screenshot")
}

func TestRejectAcceptsGoodPhoto(t *testing.T) {
	assert.Nil(t, Reject(noisyColor(1200, 1200), 0))
	assert.Nil(t, Reject(noisyColor(400, 300), 100*100))
}
