package imaging

import "fmt"

// Classifier defaults. Tunable heuristics, not protocol contracts.
const (
	DefaultBorderWidth        = 5
	DefaultBorderStd          = 5.0
	DefaultPillarboxStd       = 1.0
	DefaultUniformStd         = 5.0
	DefaultSampleSize         = 128
	DefaultWhiteBrightness    = 240
	DefaultWhitePercentLimit  = 30.0
	DefaultColorCountMin      = 100
	DefaultChannelDiffMin     = 10.0
	pillarboxMaxPixel         = 3 // strips must be near-true-black
)

// Code tags a rejection outcome. Rejections are routing decisions per
// candidate, never errors.
type Code int

const (
	TooSmall Code = iota
	NearUniformFrame
	ScreenshotFrame
)

// Reason describes why a candidate frame was rejected. A nil *Reason means
// the frame was accepted.
type Reason struct {
	Code   Code
	Detail string
}

func (r *Reason) String() string { return r.Detail }

// DetectUniformBorders reports whether a frame looks like a photo held
// inside a solid mat or frame. Three patterns qualify:
//
//  1. all four edge strips uniform (std <= threshold), a photo in a mat;
//  2. left+right strips very uniform (std <= pillarboxThreshold) AND
//     near-true-black, i.e. pillarbox bars;
//  3. the same for top+bottom, i.e. letterbox bars.
//
// Patterns 2 and 3 need the stricter threshold plus near-black pixels
// because dark video scenes can have low-variance edges that are not bars.
func DetectUniformBorders(img Image, borderWidth int, threshold, pillarboxThreshold float64) bool {
	g := Grayscale(img)
	w, h := g.W, g.H
	if borderWidth <= 0 || w < borderWidth || h < borderWidth {
		return false
	}

	left := g.SubImage(0, 0, borderWidth, h)
	right := g.SubImage(w-borderWidth, 0, w, h)
	top := g.SubImage(0, 0, w, borderWidth)
	bottom := g.SubImage(0, h-borderWidth, w, h)

	leftStd := popStdDev(left.Pix)
	rightStd := popStdDev(right.Pix)
	topStd := popStdDev(top.Pix)
	bottomStd := popStdDev(bottom.Pix)

	if leftStd <= threshold && rightStd <= threshold &&
		topStd <= threshold && bottomStd <= threshold {
		return true
	}

	if leftStd <= pillarboxThreshold && rightStd <= pillarboxThreshold {
		if maxPix(left.Pix) < pillarboxMaxPixel && maxPix(right.Pix) < pillarboxMaxPixel {
			return true
		}
	}

	if topStd <= pillarboxThreshold && bottomStd <= pillarboxThreshold {
		if maxPix(top.Pix) < pillarboxMaxPixel && maxPix(bottom.Pix) < pillarboxMaxPixel {
			return true
		}
	}

	return false
}

// NearUniform rejects frames that are a solid color plus codec noise.
// Compression noise on a flat frame gives a grayscale std of 1–3; real
// photographic content exceeds 15 even when dark.
func NearUniform(img Image, stdThreshold float64) *Reason {
	if popStdDev(Grayscale(img).Pix) < stdThreshold {
		return &Reason{Code: NearUniformFrame, Detail: "near-uniform frame"}
	}
	return nil
}

// WhiteBackgroundPercent measures the share of near-white pixels on a
// downscaled grayscale sample. UI screens run 40–70%; photos rarely pass 10%.
func WhiteBackgroundPercent(img Image, sampleSize, brightnessThreshold int) float64 {
	small := Grayscale(img).DownscaleArea(sampleSize, sampleSize)
	white := 0
	for _, p := range small.Pix {
		if int(p) > brightnessThreshold {
			white++
		}
	}
	return float64(white) / float64(sampleSize*sampleSize) * 100
}

// Screenshot rejects frames that look like screen content rather than a
// filmed photograph. Grayscale frames bypass the classifier entirely: the
// heuristics are color-based and a B&W photo must not be penalized.
func Screenshot(img Image, colorCountThreshold, sampleSize int) *Reason {
	c, ok := img.(*Color)
	if !ok {
		return nil
	}

	small := c.DownscaleArea(sampleSize, sampleSize)

	// Stage 1: white background. Runs regardless of color richness since
	// UI galleries can be visually diverse yet dominated by white chrome.
	whitePct := WhiteBackgroundPercent(small, sampleSize, DefaultWhiteBrightness)
	if whitePct > DefaultWhitePercentLimit {
		return &Reason{Code: ScreenshotFrame, Detail: fmt.Sprintf("screenshot (%.0f%% white background)", whitePct)}
	}

	// Stage 2: effectively monochrome 3-channel frames skip the color
	// count; few "colors" is expected of a B&W photo.
	var diffSum float64
	n := sampleSize * sampleSize
	for i := 0; i < n; i++ {
		r := int(small.Pix[i*3])
		g := int(small.Pix[i*3+1])
		b := int(small.Pix[i*3+2])
		diffSum += float64(abs(r-g)+abs(r-b)+abs(g-b)) / 3
	}
	if diffSum/float64(n) < DefaultChannelDiffMin {
		return nil
	}

	// Stage 3: quantize each channel to 32 levels and count distinct
	// colors; flat UI regions have far fewer than natural photographs.
	seen := make(map[uint32]struct{}, colorCountThreshold*4)
	for i := 0; i < n; i++ {
		r := uint32(small.Pix[i*3] / 8)
		g := uint32(small.Pix[i*3+1] / 8)
		b := uint32(small.Pix[i*3+2] / 8)
		seen[r*1024+g*32+b] = struct{}{}
	}
	if len(seen) < colorCountThreshold {
		return &Reason{Code: ScreenshotFrame, Detail: fmt.Sprintf("screenshot (%d unique colors)", len(seen))}
	}

	return nil
}

// Reject runs the full-resolution validation pipeline, first failure wins:
// size check, near-uniform check, screenshot check. Nil means accepted.
func Reject(img Image, minPhotoArea int) *Reason {
	w, h := img.Size()
	if minPhotoArea > 0 && w*h < minPhotoArea {
		return &Reason{Code: TooSmall, Detail: fmt.Sprintf("too small (%dx%d)", w, h)}
	}
	if r := NearUniform(img, DefaultUniformStd); r != nil {
		return r
	}
	if r := Screenshot(img, DefaultColorCountMin, DefaultSampleSize); r != nil {
		return r
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
